package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// summaryRows is the number of rows written above the rule table header.
const summaryRows = 5

var ruleHeader = []any{
	"Antecedents", "Consequents", "Antecedent descriptions", "Consequent descriptions",
	"Support", "Confidence", "Lift", "Leverage", "Conviction", "Zhang's metric",
}

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	limiter *rate.Limiter
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSheetsUnavailable, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{config: config, service: srv, logger: logger, limiter: config.limiter()}, nil
}

// Write replaces the sheet's contents with a summary of run followed by one row per rule.
func (w *Writer) Write(ctx context.Context, run *model.MiningRun, rules []model.Rule, catalog model.Catalog) error {
	if run == nil {
		return fmt.Errorf("%w: run", common.ErrNotFound)
	}
	w.logger.Info("starting rule export", "run_id", run.ID, "rules", len(rules))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := PrepareReportData(run, rules, catalog)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, "write rules", func(ctx context.Context) error {
		return classifyError(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, "format sheet", func(ctx context.Context) error {
			return classifyError(w.applyFormatting(ctx, spreadsheetID, len(values)))
		}, retryOpts)
		if err != nil {
			// formatting is cosmetic; the data is already written
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("rule export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))
	return nil
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if _, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: w.config.SheetName}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// PrepareReportData lays out the summary block, a blank row, the rule header and one row per rule.
func PrepareReportData(run *model.MiningRun, rules []model.Rule, catalog model.Catalog) [][]any {
	values := make([][]any, 0, summaryRows+2+len(rules))

	values = append(values,
		[]any{"Association Rules", run.CreatedAt.Format("Jan 2, 2006 15:04")},
		[]any{"Source", run.Source, "Country", orAll(run.Country)},
		[]any{"Key column", run.KeyColumn, "Transactions", run.Transactions},
		[]any{"Min support", run.MinSupport, "Items", run.Items},
		[]any{"Metric", fmt.Sprintf("%s ≥ %v", run.Metric, run.MinThreshold), "Rules", len(rules)},
		[]any{},
		ruleHeader,
	)

	for _, r := range rules {
		values = append(values, []any{
			strings.Join(r.Antecedents, ", "),
			strings.Join(r.Consequents, ", "),
			describeAll(catalog, r.Antecedents),
			describeAll(catalog, r.Consequents),
			r.Support,
			r.Confidence,
			r.Lift,
			r.Leverage,
			convictionCell(r.Conviction),
			r.ZhangsMetric,
		})
	}
	return values
}

func orAll(country string) string {
	if country == "" {
		return "All"
	}
	return country
}

func describeAll(catalog model.Catalog, items []string) string {
	if len(catalog) == 0 {
		return ""
	}
	descs := make([]string, len(items))
	for i, item := range items {
		descs[i] = catalog.Describe(item)
	}
	return strings.Join(descs, "; ")
}

// convictionCell renders infinity as text since the API rejects non-finite numbers.
func convictionCell(v float64) any {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsNaN(v) {
		return ""
	}
	return v
}

// classifyError maps Sheets API failures onto the retry policy: 429 is a rate
// limit, other 4xx responses are permanent, everything else may be retried.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 500:
		return fmt.Errorf("%w: %w", common.ErrSheetsUnavailable, err)
	case apiErr.Code >= 400:
		return common.Permanent(err)
	default:
		return err
	}
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		if err := w.limiter.Wait(ctx); err != nil {
			return common.Permanent(err)
		}
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", w.config.SheetName, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	headerRow := int64(summaryRows + 1)
	requests := []*sheets.Request{
		// Title
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: 0, StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 2},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16}},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Rule table header
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: 0, StartRowIndex: headerRow, EndRowIndex: headerRow + 1, StartColumnIndex: 0, EndColumnIndex: int64(len(ruleHeader))},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Metric columns
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: 0, StartRowIndex: headerRow + 1, EndRowIndex: int64(totalRows), StartColumnIndex: 4, EndColumnIndex: int64(len(ruleHeader))},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "0.0000"}},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{SheetId: 0, Dimension: "COLUMNS", StartIndex: 0, EndIndex: int64(len(ruleHeader))},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        0,
					GridProperties: &sheets.GridProperties{FrozenRowCount: headerRow + 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return common.Permanent(err)
	}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}
