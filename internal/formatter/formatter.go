// package formatter renders tracker data for people: the daily summary table, Telegram HTML and CSV exports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws a fixed-width ASCII table. Missing cells render empty.
func RenderTable(headers []string, rows [][]string, aligns []Alignment, footer []string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleDefault)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	tw.AppendHeader(toRow(headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(footer) > 0 {
		tw.AppendFooter(toRow(footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: align,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func toRow(cells []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

// SummaryRow is one account line of the daily summary; Stats follow the summary's category order.
type SummaryRow struct {
	Account string
	Stats   []models.CategoryStats
}

// Summary is the account-by-category overview sent every day.
type Summary struct {
	Title      string
	Date       string
	Categories []string
	Rows       []SummaryRow
}

// StatsCell renders "<total> (<standard>)", or "0" for an empty category.
func StatsCell(s models.CategoryStats) string {
	if s.Total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%d)", s.Total, s.Standard)
}

// Totals sums every account per category.
func (s Summary) Totals() []models.CategoryStats {
	totals := make([]models.CategoryStats, len(s.Categories))
	for _, row := range s.Rows {
		for i := range totals {
			if i < len(row.Stats) {
				totals[i].Total += row.Stats[i].Total
				totals[i].Standard += row.Stats[i].Standard
			}
		}
	}
	return totals
}

// RenderSummary draws the summary table with a grand total footer, headed by "<title> | <date>".
func RenderSummary(s Summary) string {
	headers := append([]string{"Кабинет"}, s.Categories...)
	aligns := make([]Alignment, len(headers))
	for i := 1; i < len(aligns); i++ {
		aligns[i] = AlignRight
	}

	rows := make([][]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		cells := []string{r.Account}
		for i := range s.Categories {
			var st models.CategoryStats
			if i < len(r.Stats) {
				st = r.Stats[i]
			}
			cells = append(cells, StatsCell(st))
		}
		rows = append(rows, cells)
	}

	footer := []string{"ИТОГО"}
	for _, t := range s.Totals() {
		footer = append(footer, StatsCell(t))
	}

	var b strings.Builder
	if heading := summaryHeading(s); heading != "" {
		b.WriteString(heading)
		b.WriteString("\n")
	}
	b.WriteString(RenderTable(headers, rows, aligns, footer))
	return b.String()
}

func summaryHeading(s Summary) string {
	switch {
	case s.Title != "" && s.Date != "":
		return s.Title + " | " + s.Date
	case s.Title != "":
		return s.Title
	default:
		return s.Date
	}
}

// TelegramHTML wraps a fixed-width report in <pre> for HTML parse mode and appends an optional link.
func TelegramHTML(report, link string) string {
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(report))
	b.WriteString("</pre>")
	if link = strings.TrimSpace(link); link != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(link))
	}
	return b.String()
}

// OpenTasksCSV exports rows still awaiting a reviewer: no resolution mark and no disappearance date.
func OpenTasksCSV(items []models.TrackedItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		models.HeaderReviewer,
		models.HeaderAccount,
		models.HeaderItemID,
		models.HeaderName,
		models.HeaderDateAdded,
		"Строка",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, it := range items {
		if !it.Open() || it.Disappeared() || it.ItemID == "" {
			continue
		}
		record := []string{
			it.Reviewer,
			it.Accounts.String(),
			it.ItemID,
			it.Name,
			it.DateAdded,
			strconv.Itoa(it.Row),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
