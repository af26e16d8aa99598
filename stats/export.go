package stats

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/judyrop/crm/models"
)

const FormatCSV = "csv"

var CustomerCSVHeader = []string{"Name", "Email", "Phone", "Source", "Created At"}

// ExportCustomers renders every customer in the given format. Only "csv" is
// supported; any other format yields "" and no error.
func (s *Service) ExportCustomers(ctx context.Context, format string) (string, error) {
	if format != FormatCSV {
		return "", nil
	}
	var customers []models.Customer
	if err := s.DB.WithContext(ctx).Order("id").Find(&customers).Error; err != nil {
		return "", err
	}
	rows := make([][]string, len(customers))
	for i, c := range customers {
		rows[i] = []string{c.Name, c.EmailAddress(), c.Phone, c.Source, c.CreatedAt.Format(dayLayout)}
	}
	return writeCSV(CustomerCSVHeader, rows)
}

var ProductCSVHeader = []string{"Name", "Description", "Price", "Category", "Created At"}

func (s *Service) ExportProducts(ctx context.Context, format string) (string, error) {
	if format != FormatCSV {
		return "", nil
	}
	var products []models.Product
	if err := s.DB.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return "", err
	}
	rows := make([][]string, len(products))
	for i, p := range products {
		rows[i] = []string{
			p.Name,
			p.Description,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			string(p.Category),
			p.CreatedAt.Format(dayLayout),
		}
	}
	return writeCSV(ProductCSVHeader, rows)
}

var UserCSVHeader = []string{"Username", "Email", "First Name", "Last Name", "Date Joined", "Is Active"}

func (s *Service) ExportUsers(ctx context.Context, format string) (string, error) {
	if format != FormatCSV {
		return "", nil
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return "", err
	}
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{
			u.Username,
			u.Email,
			u.FirstName,
			u.LastName,
			u.CreatedAt.Format(dayLayout),
			strconv.FormatBool(u.IsActive),
		}
	}
	return writeCSV(UserCSVHeader, rows)
}

func writeCSV(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}
