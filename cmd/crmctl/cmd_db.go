package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/judyrop/crm/database"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo tags, products, customers and orders into an empty database",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	var products int64
	if err := db.WithContext(cmd.Context()).Model(&models.Product{}).Count(&products).Error; err != nil {
		return err
	}
	if products > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Database already has products, skipping seed")
		return nil
	}
	if err := seed(cmd.Context(), db); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Demo data loaded")
	return nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tagRepo := repository.NewTagRepository(tx)
		tags := map[string]*models.Tag{}
		for _, name := range []string{"Sports", "Kitchen", "Summer"} {
			t := &models.Tag{Name: name}
			if err := tagRepo.Create(ctx, t); err != nil {
				return err
			}
			tags[name] = t
		}

		productRepo := repository.NewProductRepository(tx)
		catalog := []models.Product{
			{Name: "Ball", Price: 12.5, Category: models.CategoryOutdoor, Description: "Size 5 football", Tags: []models.Tag{*tags["Sports"], *tags["Summer"]}},
			{Name: "BBQ Grill", Price: 180, Category: models.CategoryOutdoor, Description: "Charcoal grill", Tags: []models.Tag{*tags["Kitchen"], *tags["Summer"]}},
			{Name: "Kettle", Price: 35, Category: models.CategoryIndoor, Description: "1.7l electric kettle", Tags: []models.Tag{*tags["Kitchen"]}},
		}
		for i := range catalog {
			if err := productRepo.Create(ctx, &catalog[i]); err != nil {
				return err
			}
		}

		customerRepo := repository.NewCustomerRepository(tx)
		people := []struct{ name, email, phone, source string }{
			{"John Doe", "john@example.com", "0712345678", "website"},
			{"Jane Smith", "jane@example.com", "0723456789", "referral"},
			{"Peter Parker", "", "0734567890", "walk-in"},
		}
		customers := make([]models.Customer, len(people))
		for i, p := range people {
			customers[i] = models.Customer{Name: p.name, Phone: p.phone, Source: p.source, IsActive: true}
			customers[i].SetEmail(p.email)
			if err := customerRepo.Create(ctx, &customers[i]); err != nil {
				return err
			}
		}

		statuses := models.OrderStatuses()
		var orders []models.Order
		for i := range customers {
			for j := range catalog {
				if (i+j)%2 == 1 {
					continue
				}
				orders = append(orders, models.Order{
					CustomerID: &customers[i].ID,
					ProductID:  &catalog[j].ID,
					Status:     statuses[(i+j)%len(statuses)],
				})
			}
		}
		return repository.NewOrderRepository(tx).CreateBatch(ctx, orders)
	})
}
