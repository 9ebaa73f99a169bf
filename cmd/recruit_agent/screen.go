package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var screenJDID string

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a job description's applicants from the command line",
	Long: `Run one screening pass over every applicant of a job description as a
trusted operator and print the committed report as JSON.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringVar(&screenJDID, "jd", "", "Job description ID (required)")
	_ = screenCmd.MarkFlagRequired("jd")
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, _ []string) error {
	jdID, err := uuid.Parse(screenJDID)
	if err != nil {
		return fmt.Errorf("invalid --jd: %w", err)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(true); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to release resources", zap.Error(err))
		}
	}()

	report, err := a.screener.Screen(ctx, jdID, nil)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
