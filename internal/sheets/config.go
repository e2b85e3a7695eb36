// Package sheets exports mined association rules to Google Sheets.
package sheets

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"golang.org/x/time/rate"
)

// DefaultSpreadsheetName is used when a new spreadsheet has to be created.
const DefaultSpreadsheetName = "Association Rules"

// DefaultRequestsPerMinute stays within the per-user write quota of the Sheets API.
const DefaultRequestsPerMinute = 60

// Config holds the configuration for the Google Sheets writer.
// RequestsPerMinute throttles write calls; zero disables throttling.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetName          string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RequestsPerMinute  int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting:  true,
		SpreadsheetName:   DefaultSpreadsheetName,
		SheetName:         "Rules",
		TimeZone:          "Europe/London",
		BatchSize:         1000,
		RetryAttempts:     3,
		RequestsPerMinute: DefaultRequestsPerMinute,
		RetryDelay:        time.Second,
	}
}

// LoadFromEnv fills unset credentials from CART_SHEETS_* environment variables.
func (c *Config) LoadFromEnv() error {
	setIfEmpty(&c.ClientID, "CART_SHEETS_CLIENT_ID")
	setIfEmpty(&c.ClientSecret, "CART_SHEETS_CLIENT_SECRET")
	setIfEmpty(&c.RefreshToken, "CART_SHEETS_REFRESH_TOKEN")
	setIfEmpty(&c.ServiceAccountPath, "CART_SHEETS_SERVICE_ACCOUNT_PATH")
	setIfEmpty(&c.SpreadsheetID, "CART_SHEETS_SPREADSHEET_ID")
	setIfEmpty(&c.SpreadsheetName, "CART_SHEETS_SPREADSHEET_NAME")

	if c.ServiceAccountPath == "" && (c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "") {
		return fmt.Errorf("%w: provide either a service account path or OAuth2 credentials", common.ErrMissingConfig)
	}

	if c.SpreadsheetName == "" {
		c.SpreadsheetName = DefaultSpreadsheetName
	}

	return nil
}

func setIfEmpty(field *string, env string) {
	if *field == "" {
		*field = os.Getenv(env)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return common.InvalidConfigf("no authentication method configured")
	}
	if hasOAuth && hasServiceAccount {
		return common.InvalidConfigf("multiple authentication methods configured; use either OAuth2 or service account")
	}
	if c.BatchSize <= 0 {
		return common.InvalidConfigf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return common.InvalidConfigf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return common.InvalidConfigf("retry delay cannot be negative")
	}
	if c.RequestsPerMinute < 0 {
		return common.InvalidConfigf("requests per minute cannot be negative")
	}
	return nil
}

func (c *Config) limiter() *rate.Limiter {
	if c.RequestsPerMinute == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.RequestsPerMinute)), 1)
}
