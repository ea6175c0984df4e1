package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"myfinances/internal/config"
	ports "myfinances/internal/sheets"
)

// Client reads and appends rows on the worksheets of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetNames    map[ports.Dataset]string
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// Credentials holds the supported ways of authenticating. A service account
// wins over an OAuth user token when both are set.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

// Options configures a Client.
type Options struct {
	SpreadsheetID     string
	IncomeSheetName   string
	ExpensesSheetName string
	Credentials       Credentials
}

// indirection for tests
var jsonUnmarshal = json.Unmarshal

// NewFromConfig creates a Sheets client from the application config.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		IncomeSheetName:   cfg.IncomeSheetName,
		ExpensesSheetName: cfg.ExpensesSheetName,
		Credentials: Credentials{
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
			OAuthClientFile:    cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		},
	})
}

// New authenticates and creates a Sheets client.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts.Credentials)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	income := strings.TrimSpace(opts.IncomeSheetName)
	if income == "" {
		income = string(ports.Income)
	}
	expenses := strings.TrimSpace(opts.ExpensesSheetName)
	if expenses == "" {
		expenses = string(ports.Expenses)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetNames: map[ports.Dataset]string{
			ports.Income:   income,
			ports.Expenses: expenses,
		},
	}
}

// newSheetsService initializes a Sheets Service from service account
// credentials or, failing that, from an OAuth client plus a stored token
// (see cmd/oauth-init).
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	saJSON, err := firstOf(creds.ServiceAccountJSON, creds.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	if len(saJSON) > 0 {
		slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(saJSON),
			"scope", gsheet.SpreadsheetsScope)
		svc, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return svc, nil
	}

	clientJSON, err := firstOf(creds.OAuthClientJSON, creds.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	if len(clientJSON) == 0 {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	tokenJSON, err := firstOf(creds.OAuthTokenJSON, creds.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	if len(tokenJSON) == 0 {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	cfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := jsonUnmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with OAuth token")
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// firstOf returns inline JSON if set, else the content of path.
func firstOf(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if p := strings.TrimSpace(path); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// GetAllRows implements ports.RowReader.
func (c *Client) GetAllRows(ctx context.Context, dataset ports.Dataset) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng, err := c.sheetRange(dataset)
	if err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		out = append(out, toStrings(row))
	}
	return out, nil
}

// AppendRow implements ports.RowAppender. Values are written RAW so display
// amounts such as "1.500,00" stay text instead of being reinterpreted by the
// spreadsheet locale.
func (c *Client) AppendRow(ctx context.Context, dataset ports.Dataset, fields []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng, err := c.sheetRange(dataset)
	if err != nil {
		return "", err
	}
	vr := &gsheet.ValueRange{Values: [][]any{fields}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return c.sheetNames[dataset], nil
}

func (c *Client) sheetRange(dataset ports.Dataset) (string, error) {
	name, ok := c.sheetNames[dataset]
	if !ok {
		return "", fmt.Errorf("unknown dataset %q", dataset)
	}
	return fmt.Sprintf("'%s'!A:Z", strings.ReplaceAll(name, "'", "''")), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
