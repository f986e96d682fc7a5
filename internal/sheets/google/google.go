package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"ninedelights/internal/core"
	"ninedelights/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads and writes delight entries in a Google Sheet. The sheet is
// the system of record: one entry per row, data starting at row 2 below
// the header, columns A:F holding date, delight, description, wildcard
// name, created-at and image URL.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ sheets.EntryLister   = (*Client)(nil)
	_ sheets.EntryAppender = (*Client)(nil)
	_ sheets.EntryUpdater  = (*Client)(nil)
	_ sheets.EntryDeleter  = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Sheet1"); credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) dataRange() string {
	return fmt.Sprintf("%s!A2:F", c.sheetName)
}

// ListAll returns every entry in the sheet, rows assigned top to bottom
// starting at 2.
func (c *Client) ListAll(ctx context.Context) ([]core.Entry, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.dataRange(), err)
	}
	return parseRows(resp.Values), nil
}

// List returns the entries whose date falls in [start, end] inclusive.
// Filtering happens client-side over the full range read; the sheet has
// no query capability beyond ranges.
func (c *Client) List(ctx context.Context, start, end string) ([]core.Entry, error) {
	all, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterRange(all, start, end), nil
}

// Append adds the entry as a new bottom row. The created-at timestamp is
// assigned here.
func (c *Client) Append(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		e.Date,
		string(e.Type),
		e.Description,
		e.WildcardName,
		time.Now().UTC().Format(time.RFC3339),
		e.ImageURL,
	}}}
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// Update rewrites columns A:F of the given row, preserving the stored
// created-at so the timestamp survives edits.
func (c *Client) Update(ctx context.Context, row int, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if row < 2 {
		return fmt.Errorf("%w: %d", core.ErrInvalidRow, row)
	}

	rowRange := fmt.Sprintf("%s!A%d:F%d", c.sheetName, row, row)
	existing, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rowRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rowRange, err)
	}
	if len(existing.Values) == 0 {
		return fmt.Errorf("%w: row %d no longer exists", core.ErrInvalidRow, row)
	}
	createdAt := cell(toStrings(existing.Values[0]), 4)
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		e.Date,
		string(e.Type),
		e.Description,
		e.WildcardName,
		createdAt,
		e.ImageURL,
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rowRange, err)
	}
	return nil
}

// Delete removes the row from the sheet. Rows below shift up, so cached
// positions on the client are invalid afterwards.
func (c *Client) Delete(ctx context.Context, row int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if row < 2 {
		return fmt.Errorf("%w: %d", core.ErrInvalidRow, row)
	}

	gid, err := c.sheetGID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    gid,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	slog.InfoContext(ctx, "Deleted sheet row", "row", row, "sheet", c.sheetName)
	return nil
}

// sheetGID resolves the numeric grid ID of the configured sheet, needed
// by DeleteDimension.
func (c *Client) sheetGID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	if len(meta.Sheets) > 0 && meta.Sheets[0].Properties != nil {
		return meta.Sheets[0].Properties.SheetId, nil
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
