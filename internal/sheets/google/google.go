// Package google mirrors user reports to a Google Sheets spreadsheet, one
// tab per user.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financepro/internal/googleauth"
	"financepro/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ sheets.ReportWriter = (*Client)(nil)

// New creates a Sheets client for spreadsheetID. opts are passed to the
// Sheets service as is.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewWithServiceAccount authenticates with the given service account JSON or
// file, or with application default credentials when both are empty.
func NewWithServiceAccount(ctx context.Context, spreadsheetID, saJSON, saFile string) (*Client, error) {
	opts, err := googleauth.Options(ctx, saJSON, saFile, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets credentials: %w", err)
	}
	return New(ctx, spreadsheetID, opts...)
}

// ReplaceSheet makes tab title hold exactly table, creating the tab when it
// does not exist yet.
func (c *Client) ReplaceSheet(ctx context.Context, title string, table [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	rng := quoteTitle(title)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", title, err)
	}

	values := make([][]any, len(table))
	for i, row := range table {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	// RAW keeps "1234,50" and "10/05/2024" as typed instead of letting
	// Sheets reinterpret them with the spreadsheet locale.
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", title, err)
	}

	slog.InfoContext(ctx, "Replaced report sheet", "sheet", title, "rows", len(table))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created report sheet", "sheet", title)
	return nil
}

// quoteTitle renders title as an A1 sheet reference.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
