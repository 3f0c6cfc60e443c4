// Package sheets defines the spreadsheet mirror of each user's report.
package sheets

import (
	"context"
	"strings"
)

// ReportWriter replaces the content of one tab of the mirror spreadsheet.
type ReportWriter interface {
	ReplaceSheet(ctx context.Context, title string, table [][]string) error
}

// maxTitleLength is the longest tab name Google Sheets accepts.
const maxTitleLength = 100

// SheetTitle returns the tab name holding userID's report. Characters that
// Sheets rejects in tab names are replaced with '_'.
func SheetTitle(userID string) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', '\'':
			return '_'
		}
		return r
	}, strings.TrimSpace(userID))
	if title == "" {
		title = "_"
	}
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}
	return title
}
