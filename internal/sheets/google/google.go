package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "expensetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Transactions"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.RowWriter = (*Client)(nil)

// Options configure the Sheets client. Credentials fall back to
// GOOGLE_APPLICATION_CREDENTIALS when neither JSON nor file is set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := loadCredentials(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"spreadsheet_id", opts.SpreadsheetID)
	return newWithService(svc, opts), nil
}

func newWithService(svc *gsheet.Service, opts Options) *Client {
	name := strings.TrimSpace(opts.SheetName)
	if name == "" {
		name = defaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: strings.TrimSpace(opts.SpreadsheetID), sheetName: name}
}

// loadCredentials resolves service account credentials from inline JSON,
// a file, or GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(ctx context.Context, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Append adds r after the last row of the sheet and returns the updated range.
func (c *Client) Append(ctx context.Context, r ports.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{r.Values()}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// EnsureHeader writes the header row when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A1:F1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{ports.Header}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Wrote export sheet header", "sheet", c.sheetName)
	return nil
}
