package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/judyrop/crm/auth"
	"github.com/judyrop/crm/database"
	"github.com/judyrop/crm/models"
	"github.com/judyrop/crm/reports"
	"github.com/judyrop/crm/repository"
	"github.com/judyrop/crm/stats"
	"github.com/judyrop/crm/validation"
)

var (
	newUsername string
	newEmail    string
	newPassword string
	newRole     string
	idleDays    int
	userSearch  string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a login, typically the first admin",
	Args:  cobra.NoArgs,
	RunE:  runCreateUser,
}

var deactivateUsersCmd = &cobra.Command{
	Use:   "deactivate-users",
	Short: "Deactivate users that have not logged in for --days days",
	Args:  cobra.NoArgs,
	RunE:  runDeactivateUsers,
}

var exportUsersCmd = &cobra.Command{
	Use:   "export-users",
	Short: "Export every login to a CSV file",
	Args:  cobra.NoArgs,
	RunE:  runExportUsers,
}

var userReportCmd = &cobra.Command{
	Use:   "user-report",
	Short: "Write user statistics and analytics as JSON, with the logins matching --search",
	Args:  cobra.NoArgs,
	RunE:  runUserReport,
}

func init() {
	createUserCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	createUserCmd.Flags().StringVar(&newEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "password, checked against the configured policy")
	createUserCmd.Flags().StringVar(&newRole, "role", string(models.RoleAdmin), "admin or customer")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")

	deactivateUsersCmd.Flags().IntVar(&idleDays, "days", 90, "idle period in days")

	exportUsersCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default users_export_<timestamp>.csv)")

	userReportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default user_report_<timestamp>.json)")
	userReportCmd.Flags().StringVarP(&userSearch, "search", "s", "", "list users whose username, email or name contains this text")
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	role, ok := models.ParseRole(newRole)
	if !ok {
		return fmt.Errorf("unknown role %q", newRole)
	}
	username := strings.TrimSpace(newUsername)
	if username == "" {
		return errors.New("--username is required")
	}
	if errs := validation.ValidatePassword(cfg.Auth.Password, newPassword); len(errs) > 0 {
		return errs
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	users := repository.NewUserRepository(db)
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u := &models.User{
		Username: username,
		Email:    strings.TrimSpace(newEmail),
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if role == models.RoleCustomer {
		c := &models.Customer{Name: username, IsActive: true}
		c.SetEmail(u.Email)
		err = users.CreateWithCustomer(cmd.Context(), u, c)
	} else {
		err = users.Create(cmd.Context(), u)
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}
	logger.Info("user created", zap.Uint("user_id", u.ID), zap.String("role", string(role)))
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s\n", role, username)
	return nil
}

func runDeactivateUsers(cmd *cobra.Command, args []string) error {
	if idleDays < 1 {
		return errors.New("--days must be at least 1")
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	cutoff := time.Now().UTC().AddDate(0, 0, -idleDays)
	n, err := repository.NewUserRepository(db).DeactivateIdle(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("deactivate users: %w", err)
	}
	logger.Info("idle users deactivated", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %d users\n", n)
	return nil
}

func runExportUsers(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	data, err := stats.New(db).ExportUsers(cmd.Context(), stats.FormatCSV)
	if err != nil {
		return fmt.Errorf("export users: %w", err)
	}
	path := outputPath("users_export", "csv")
	if err := reports.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, data)
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Users exported to %s\n", path)
	return nil
}

func runUserReport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	report, err := reports.BuildUserReport(cmd.Context(), stats.New(db), repository.NewUserRepository(db), userSearch)
	if err != nil {
		return err
	}
	path := outputPath("user_report", "json")
	if err := reports.WriteFile(path, func(w io.Writer) error {
		return reports.WriteJSON(w, report)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d users, %d active. Written to %s\n",
		report.Statistics.Total, report.Statistics.Active, path)
	return nil
}
