package backend

import (
	"fmt"

	"myfinances/internal/config"
	"myfinances/internal/sheets"
	"myfinances/internal/sheets/google"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Layout of the expenses dataset
	ExpenseSchema sheets.Schema

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	Sheets google.Options

	// Memory backend specific
	DataDirectory string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	expenseSchema, err := sheets.ExpenseSchemaFor(appConfig.ExpenseLayout)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type:          backendType,
		ExpenseSchema: expenseSchema,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sheets: google.Options{
			SpreadsheetID:     appConfig.GoogleSpreadsheetID,
			IncomeSheetName:   appConfig.IncomeSheetName,
			ExpensesSheetName: appConfig.ExpensesSheetName,
			Credentials: google.Credentials{
				ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
				ServiceAccountFile: appConfig.GoogleServiceAccountFile,
				OAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
				OAuthClientFile:    appConfig.GoogleOAuthClientFile,
				OAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,
				OAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
			},
		},

		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Headers returns the header row of each dataset for this layout.
func (c Config) Headers() map[sheets.Dataset][]string {
	expense := c.ExpenseSchema
	if expense.Width() == 0 {
		expense = sheets.ExpenseSchema()
	}
	return map[sheets.Dataset][]string{
		sheets.Income:   sheets.IncomeSchema().Headers,
		sheets.Expenses: expense.Headers,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional

	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		creds := c.Sheets.Credentials
		hasServiceAccount := creds.ServiceAccountJSON != "" || creds.ServiceAccountFile != ""
		hasClient := creds.OAuthClientJSON != "" || creds.OAuthClientFile != ""
		if !hasServiceAccount && !hasClient {
			return fmt.Errorf("service account or OAuth client credentials must be provided for sheets backend")
		}
		if !hasServiceAccount && creds.OAuthTokenJSON == "" && creds.OAuthTokenFile == "" {
			return fmt.Errorf("either OAuthTokenFile or OAuthTokenJSON must be provided for sheets backend")
		}

	case MemoryBackend:
		// DataDirectory is optional; without it the store starts empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
