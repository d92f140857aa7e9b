// Package sheets mirrors created reports into a Google spreadsheet, one tab
// per template (or per team for legacy reports).
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"teamreports/models"
	"teamreports/store"
)

// BaseColumns lead every tab.
var BaseColumns = []string{"Submission ID", "Timestamp", "Team", "User"}

var legacyColumns = []string{"Title", "Description", "Priority", "Category", "Status"}

// manualKeys maps reportData keys of a manual append onto column labels.
// Other keys become columns under their own name.
var manualKeys = map[string]string{
	"id":          "Submission ID",
	"timestamp":   "Timestamp",
	"userName":    "User",
	"title":       "Title",
	"description": "Description",
	"priority":    "Priority",
	"category":    "Category",
	"status":      "Status",
}

type TabStore interface {
	GetSheetTab(ctx context.Context, name string) (*models.SheetTab, error)
	SaveSheetTab(ctx context.Context, tab *models.SheetTab) error
}

// Entry is everything needed to render one row.
type Entry struct {
	Report   *models.Report
	Team     *models.Team
	User     *models.User
	Template *models.Template
}

type Syncer struct {
	client        Client
	tabs          TabStore
	spreadsheetID string

	// mu serializes header bookkeeping so two submissions cannot both
	// rewrite the header from a stale column list.
	mu sync.Mutex
}

func NewSyncer(client Client, tabs TabStore, spreadsheetID string) *Syncer {
	return &Syncer{client: client, tabs: tabs, spreadsheetID: spreadsheetID}
}

// Sync appends one row for the entry, creating the tab and growing its header
// first when needed. It is not idempotent.
func (s *Syncer) Sync(ctx context.Context, e Entry) error {
	if e.Report == nil || e.Team == nil {
		return errors.New("sheet sync: report and team are required")
	}
	name := TabName(e)

	s.mu.Lock()
	tab, err := s.prepareTab(ctx, name, columnsFor(e))
	s.mu.Unlock()
	if err != nil {
		return err
	}

	values := rowValues(e)
	row := make([]string, len(tab.Columns))
	for i, col := range tab.Columns {
		row[i] = values[col]
	}
	if err := s.client.AppendRow(ctx, name, row); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"tab":       name,
		"report_id": e.Report.ID,
		"columns":   len(row),
	}).Debug("Report mirrored to sheet")
	return nil
}

// AppendManual appends one row of free-form data to the team's legacy tab and
// returns the tab name. Keys outside the legacy columns are added as new
// columns in sorted order.
func (s *Syncer) AppendManual(ctx context.Context, teamName string, data map[string]string) (string, error) {
	if strings.TrimSpace(teamName) == "" {
		return "", errors.New("sheet append: team name is required")
	}
	name := "Team_" + Sanitize(teamName)

	values := map[string]string{
		"Team":      teamName,
		"Timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	var extra []string
	for k, v := range data {
		label, known := manualKeys[k]
		if !known {
			label = k
			extra = append(extra, k)
		}
		values[label] = v
	}
	sort.Strings(extra)
	labels := append(append(append([]string{}, BaseColumns...), legacyColumns...), extra...)

	s.mu.Lock()
	tab, err := s.prepareTab(ctx, name, labels)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	row := make([]string, len(tab.Columns))
	for i, col := range tab.Columns {
		row[i] = values[col]
	}
	if err := s.client.AppendRow(ctx, name, row); err != nil {
		return "", err
	}
	return name, nil
}

// TabLink is a tab with a direct link to it.
type TabLink struct {
	Title   string `json:"title"`
	SheetID int64  `json:"sheetId"`
	URL     string `json:"url"`
}

// Tabs lists the spreadsheet's tabs with links that open each one.
func (s *Syncer) Tabs(ctx context.Context) (string, []TabLink, error) {
	ss, err := s.client.ListTabs(ctx)
	if err != nil {
		return "", nil, err
	}
	title := ss.Title
	if title == "" {
		title = "Reports Spreadsheet"
	}
	links := make([]TabLink, 0, len(ss.Tabs))
	for _, t := range ss.Tabs {
		links = append(links, TabLink{
			Title:   t.Title,
			SheetID: t.SheetID,
			URL:     fmt.Sprintf("%s#gid=%d", SpreadsheetURL(s.spreadsheetID, ""), t.SheetID),
		})
	}
	return title, links, nil
}

func (s *Syncer) prepareTab(ctx context.Context, name string, labels []string) (*models.SheetTab, error) {
	tab, err := s.tabs.GetSheetTab(ctx, name)
	isNew := false
	switch {
	case errors.Is(err, store.ErrNotFound):
		tab = &models.SheetTab{Name: name}
		isNew = true
	case err != nil:
		return nil, fmt.Errorf("load sheet tab %s: %w", name, err)
	}

	created, err := s.client.EnsureTab(ctx, name)
	if err != nil {
		return nil, err
	}
	grew := tab.MergeColumns(labels...)
	if !isNew && !created && !grew {
		return tab, nil
	}

	if err := s.client.WriteHeader(ctx, name, tab.Columns); err != nil {
		return nil, err
	}
	if err := s.tabs.SaveSheetTab(ctx, tab); err != nil {
		return nil, fmt.Errorf("save sheet tab %s: %w", name, err)
	}
	return tab, nil
}

// URL links to the spreadsheet, optionally scrolled to a tab.
func (s *Syncer) URL(tab string) string {
	return SpreadsheetURL(s.spreadsheetID, tab)
}

func SpreadsheetURL(spreadsheetID, tab string) string {
	if spreadsheetID == "" {
		return ""
	}
	u := "https://docs.google.com/spreadsheets/d/" + spreadsheetID + "/edit"
	if tab != "" {
		u += "#gid=0&range=" + url.QueryEscape(tab)
	}
	return u
}

// TabName is the sanitized template name, or Team_<team> for legacy reports.
func TabName(e Entry) string {
	if e.Template != nil {
		return Sanitize(e.Template.Name)
	}
	return "Team_" + Sanitize(e.Team.Name)
}

// Sanitize replaces every rune outside [A-Za-z0-9] with an underscore.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func columnsFor(e Entry) []string {
	cols := append([]string{}, BaseColumns...)
	if e.Template == nil {
		return append(cols, legacyColumns...)
	}
	cols = append(cols, "Title")
	for _, f := range e.Template.Fields {
		cols = append(cols, f.Label)
	}
	return cols
}

func rowValues(e Entry) map[string]string {
	r := e.Report
	values := map[string]string{
		"Submission ID": r.ID,
		"Timestamp":     r.CreatedAt.UTC().Format(time.RFC3339),
		"Team":          e.Team.Name,
		"Title":         r.Title,
	}
	if e.User != nil {
		values["User"] = e.User.DisplayName()
	}

	if e.Template == nil {
		values["Description"] = deref(r.Description)
		values["Priority"] = deref(r.Priority)
		values["Category"] = deref(r.Category)
		values["Status"] = deref(r.Status)
		return values
	}
	for _, f := range e.Template.Fields {
		values[f.Label] = r.Answers.Get(f.ID).String()
	}
	return values
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
