package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Client is the spreadsheet surface the syncer needs.
type Client interface {
	// EnsureTab creates the tab when missing and reports whether it did.
	EnsureTab(ctx context.Context, title string) (bool, error)
	WriteHeader(ctx context.Context, title string, headers []string) error
	AppendRow(ctx context.Context, title string, row []string) error
	ListTabs(ctx context.Context) (*Spreadsheet, error)
}

// Spreadsheet describes the document and its tabs.
type Spreadsheet struct {
	Title string
	Tabs  []Tab
}

type Tab struct {
	Title   string
	SheetID int64
}

const (
	newTabRows    = 1000
	newTabColumns = 40
)

// GoogleClient talks to one spreadsheet through the Sheets v4 API using
// service-account credentials.
type GoogleClient struct {
	svc           *gsheets.Service
	spreadsheetID string
}

func NewGoogleClient(ctx context.Context, spreadsheetID, credentialsFile string) (*GoogleClient, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials %s: %w", credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	svc, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleClient{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (g *GoogleClient) EnsureTab(ctx context.Context, title string) (bool, error) {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return false, nil
		}
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    newTabRows,
						ColumnCount: newTabColumns,
					},
				},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("add sheet %s: %w", title, err)
	}
	return true, nil
}

func (g *GoogleClient) WriteHeader(ctx context.Context, title string, headers []string) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(headers)}}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, a1(title, "1:1"), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", title, err)
	}
	return nil
}

func (g *GoogleClient) AppendRow(ctx context.Context, title string, row []string) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(row)}}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, a1(title, "A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row %s: %w", title, err)
	}
	return nil
}

func (g *GoogleClient) ListTabs(ctx context.Context) (*Spreadsheet, error) {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).
		Fields("properties.title", "sheets.properties(title,sheetId)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	out := &Spreadsheet{}
	if ss.Properties != nil {
		out.Title = ss.Properties.Title
	}
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		out.Tabs = append(out.Tabs, Tab{Title: sh.Properties.Title, SheetID: sh.Properties.SheetId})
	}
	return out, nil
}

// a1 builds a quoted A1 range for a tab title.
func a1(title, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
