package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-cart-must-flow/internal/arl"
	"github.com/Veraticus/the-cart-must-flow/internal/cli"
	"github.com/Veraticus/the-cart-must-flow/internal/config"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"github.com/Veraticus/the-cart-must-flow/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export mining results",
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the rules of a run to Google Sheets",
		Long: `Write a run summary and its rules, sorted by lift, to a Google Sheets
spreadsheet. Authenticate first with 'cart auth sheets' or configure
sheets.service_account_path.`,
		RunE: runExportSheets,
	}
	sheetsCmd.Flags().Int64("run", 0, "run id (default: latest)")
	sheetsCmd.Flags().String("spreadsheet-id", "", "existing spreadsheet to write to")

	cmd.AddCommand(sheetsCmd)
	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd, map[string]string{"spreadsheet-id": "sheets.spreadsheet_id"}); err != nil {
		return err
	}
	runID, _ := cmd.Flags().GetInt64("run")

	sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("google sheets is not configured: %w", err)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	run, rules, catalog, err := loadRunRules(ctx, store, runID)
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return err
	}
	if err := exportRules(ctx, writer, run, rules, catalog); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d rules of run %d", len(rules), run.ID)))
	return nil
}

// exportRules hands the rules of a run to writer, strongest lift first.
func exportRules(ctx context.Context, writer service.ReportWriter, run *model.MiningRun, rules []model.Rule, catalog model.Catalog) error {
	sorted := arl.SortRules(rules, arl.MetricLift, true)
	if err := writer.Write(ctx, run, sorted, catalog); err != nil {
		return fmt.Errorf("failed to export run %d: %w", run.ID, err)
	}
	return nil
}
