package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID: "test-client", ClientSecret: "test-secret", RefreshToken: "test-token",
				BatchSize: 100, RetryAttempts: 3, RetryDelay: time.Second,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100, RetryAttempts: 3, RetryDelay: time.Second,
			},
		},
		{
			name: "negative request rate",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100, RequestsPerMinute: -1,
			},
			wantErr: true,
			errMsg:  "requests per minute cannot be negative",
		},
		{
			name:    "missing auth",
			config:  Config{BatchSize: 100},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID: "test-client", RefreshToken: "test-token", BatchSize: 100,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID: "test-client", ClientSecret: "test-secret", RefreshToken: "test-token",
				ServiceAccountPath: "/path/to/key.json", BatchSize: 100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods",
		},
		{
			name:    "zero batch size",
			config:  Config{ServiceAccountPath: "/k.json"},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retries",
			config:  Config{ServiceAccountPath: "/k.json", BatchSize: 1, RetryAttempts: -1},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Run("oauth from env", func(t *testing.T) {
		t.Setenv("CART_SHEETS_CLIENT_ID", "id")
		t.Setenv("CART_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("CART_SHEETS_REFRESH_TOKEN", "refresh")
		t.Setenv("CART_SHEETS_SPREADSHEET_ID", "sheet-123")

		cfg := Config{ClientID: "explicit"}
		require.NoError(t, cfg.LoadFromEnv())
		assert.Equal(t, "explicit", cfg.ClientID)
		assert.Equal(t, "secret", cfg.ClientSecret)
		assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
		assert.Equal(t, DefaultSpreadsheetName, cfg.SpreadsheetName)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("CART_SHEETS_CLIENT_ID", "")
		t.Setenv("CART_SHEETS_SERVICE_ACCOUNT_PATH", "")
		cfg := DefaultConfig()
		require.ErrorIs(t, cfg.LoadFromEnv(), common.ErrMissingConfig)
	})
}

func TestConfig_Limiter(t *testing.T) {
	unlimited := (&Config{}).limiter()
	assert.True(t, unlimited.Allow())
	assert.True(t, unlimited.Allow())

	throttled := (&Config{RequestsPerMinute: 1}).limiter()
	assert.True(t, throttled.Allow())
	assert.False(t, throttled.Allow())
}
