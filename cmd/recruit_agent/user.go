package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/types"
)

var (
	userName  string
	userEmail string
	userRole  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff user or register a candidate",
	Long: `Create a staff user (admin, rmg, hr) or register a candidate, then print
the stored ID. Registering a known candidate email refreshes that candidate.`,
	RunE: runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
	userCreateCmd.Flags().StringVar(&userRole, "role", "", "Role: admin, rmg, hr or candidate (required)")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("role")
	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	role, err := types.ParseRole(userRole)
	if err != nil {
		return err
	}
	email := db.NormalizeEmail(userEmail)
	if email == "" {
		return errors.New("--email cannot be empty")
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	var id string
	if role == types.RoleCandidate {
		c := &types.Candidate{Name: userName, Email: email}
		if err := database.UpsertCandidate(cmd.Context(), c); err != nil {
			return err
		}
		id = c.ID.String()
	} else {
		u := &types.User{Name: userName, Email: email, Role: role}
		if err := database.CreateUser(cmd.Context(), u); err != nil {
			return err
		}
		id = u.ID.String()
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
	return err
}
