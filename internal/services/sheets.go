package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

// SheetsScope grants read/write access to spreadsheets.
const SheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// SheetsOpts configures a [SheetsClient].
//
// HTTPClient, when set, replaces the service-account client built from CredentialsFile.
type SheetsOpts struct {
	BaseURL           string
	SpreadsheetID     string
	CredentialsFile   string
	RequestsPerMinute int
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// SheetsClient talks to the Google Sheets v4 REST API for one spreadsheet.
//
// Requests are paced by a [rate.Limiter] to stay under the per-minute quota, and retried on 429/5xx.
type SheetsClient struct {
	api           *APIService
	spreadsheetID string
	limiter       *rate.Limiter
	logger        *log.Logger
}

// NewSheetsClient authenticates with a service-account key file unless opts.HTTPClient is set.
func NewSheetsClient(ctx context.Context, opts SheetsOpts) (*SheetsClient, error) {
	if opts.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: store.sheets.spreadsheet_id is empty", shared.ErrMissingConfig)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://sheets.googleapis.com"
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 50
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	base := opts.HTTPClient
	if base == nil {
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
		}
		creds, err := google.JWTConfigFromJSON(data, SheetsScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		base = creds.Client(ctx)
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 5)

	return &SheetsClient{
		api:           NewAPIService(strings.TrimRight(opts.BaseURL, "/")+"/v4/spreadsheets/"+url.PathEscape(opts.SpreadsheetID), NewHTTPClient(base, 4, opts.Logger)),
		spreadsheetID: opts.SpreadsheetID,
		limiter:       limiter,
		logger:        opts.Logger,
	}, nil
}

// SpreadsheetID returns the id of the spreadsheet.
func (c *SheetsClient) SpreadsheetID() string { return c.spreadsheetID }

func (c *SheetsClient) call(ctx context.Context, op, method, path string, body any) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}

	var resp *APIResponse
	var err error
	switch method {
	case http.MethodGet:
		resp, err = c.api.Get(ctx, path)
	default:
		data, merr := json.Marshal(body)
		if merr != nil {
			return gjson.Result{}, fmt.Errorf("failed to encode %s request: %w", op, merr)
		}
		resp, err = c.api.Post(ctx, path, data)
	}
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: sheets %s: %v", shared.ErrAPIRequest, op, err)
	}
	if !resp.OK() {
		msg := resp.JSON().Get("error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, fmt.Errorf("%w: sheets %s: %d %s", shared.ErrAPIRequest, op, resp.StatusCode, msg)
	}
	return resp.JSON(), nil
}

func (c *SheetsClient) batchUpdate(ctx context.Context, op string, requests ...map[string]any) (gjson.Result, error) {
	return c.call(ctx, op, http.MethodPost, ":batchUpdate", map[string]any{"requests": requests})
}

// Worksheets lists worksheet titles and ids.
func (c *SheetsClient) Worksheets(ctx context.Context) (map[string]int64, error) {
	res, err := c.call(ctx, "list worksheets", http.MethodGet, "?fields=sheets.properties", nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, s := range res.Get("sheets.#.properties").Array() {
		out[s.Get("title").String()] = s.Get("sheetId").Int()
	}
	return out, nil
}

// Worksheet returns the grid for title, adding the worksheet when it does not exist.
func (c *SheetsClient) Worksheet(ctx context.Context, title string) (*SheetsGrid, error) {
	sheets, err := c.Worksheets(ctx)
	if err != nil {
		return nil, err
	}
	if id, ok := sheets[title]; ok {
		return &SheetsGrid{client: c, title: title, sheetID: id}, nil
	}

	res, err := c.batchUpdate(ctx, "add worksheet", map[string]any{
		"addSheet": map[string]any{"properties": map[string]any{"title": title}},
	})
	if err != nil {
		return nil, err
	}
	id := res.Get("replies.0.addSheet.properties.sheetId").Int()
	c.logger.Info("created worksheet", "title", title, "sheet_id", id)
	return &SheetsGrid{client: c, title: title, sheetID: id}, nil
}

// SheetsGrid is one worksheet as a [models.Grid].
type SheetsGrid struct {
	client  *SheetsClient
	title   string
	sheetID int64
}

var _ models.Grid = (*SheetsGrid)(nil)

func (g *SheetsGrid) Title() string { return g.title }

// SheetID returns the numeric worksheet id used by structural requests.
func (g *SheetsGrid) SheetID() int64 { return g.sheetID }

// a1 quotes the worksheet title for A1 notation.
func (g *SheetsGrid) a1(ref string) string {
	quoted := "'" + strings.ReplaceAll(g.title, "'", "''") + "'"
	if ref == "" {
		return quoted
	}
	return quoted + "!" + ref
}

func valuesPath(a1 string) string {
	return "/values/" + url.PathEscape(a1)
}

func (g *SheetsGrid) ReadAll(ctx context.Context) ([][]string, error) {
	res, err := g.client.call(ctx, "read", http.MethodGet, valuesPath(g.a1(""))+"?majorDimension=ROWS", nil)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, r := range res.Get("values").Array() {
		var cells []string
		for _, v := range r.Array() {
			cells = append(cells, v.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func (g *SheetsGrid) AppendRows(ctx context.Context, rows [][]string) (int, error) {
	path := valuesPath(g.a1("A1")) + ":append?valueInputOption=RAW&insertDataOption=INSERT_ROWS"
	res, err := g.client.call(ctx, "append", http.MethodPost, path, map[string]any{
		"majorDimension": "ROWS",
		"values":         rows,
	})
	if err != nil {
		return 0, err
	}

	updated := res.Get("updates.updatedRange").String()
	first, err := FirstRow(updated)
	if err != nil {
		return 0, fmt.Errorf("%w: sheets append: %v", shared.ErrAPIRequest, err)
	}
	return first, nil
}

func (g *SheetsGrid) UpdateCells(ctx context.Context, updates []models.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		data = append(data, map[string]any{
			"range":  g.a1(CellRef(u.Row, u.Col)),
			"values": [][]string{{u.Value}},
		})
	}
	_, err := g.client.call(ctx, "update cells", http.MethodPost, "/values:batchUpdate", map[string]any{
		"valueInputOption": "RAW",
		"data":             data,
	})
	return err
}

func (g *SheetsGrid) InsertColumn(ctx context.Context, col int) error {
	_, err := g.client.batchUpdate(ctx, "insert column", map[string]any{
		"insertDimension": map[string]any{
			"range": map[string]any{
				"sheetId":    g.sheetID,
				"dimension":  "COLUMNS",
				"startIndex": col - 1,
				"endIndex":   col,
			},
			"inheritFromBefore": false,
		},
	})
	return err
}

func (g *SheetsGrid) HighlightRows(ctx context.Context, bands []models.RowBand) error {
	var requests []map[string]any
	for _, b := range bands {
		color, ok := b.Flag.Background()
		if !ok {
			continue
		}
		requests = append(requests, map[string]any{
			"repeatCell": map[string]any{
				"range": g.rowRange(b.Row),
				"cell": map[string]any{
					"userEnteredFormat": map[string]any{
						"backgroundColor": map[string]any{"red": color.Red, "green": color.Green, "blue": color.Blue},
					},
				},
				"fields": "userEnteredFormat.backgroundColor",
			},
		})
	}
	if len(requests) == 0 {
		return nil
	}
	_, err := g.client.batchUpdate(ctx, "highlight rows", requests...)
	return err
}

// StyleHeader makes row 1 bold and frozen.
func (g *SheetsGrid) StyleHeader(ctx context.Context) error {
	_, err := g.client.batchUpdate(ctx, "style header",
		map[string]any{
			"repeatCell": map[string]any{
				"range":  g.rowRange(1),
				"cell":   map[string]any{"userEnteredFormat": map[string]any{"textFormat": map[string]any{"bold": true}}},
				"fields": "userEnteredFormat.textFormat.bold",
			},
		},
		map[string]any{
			"updateSheetProperties": map[string]any{
				"properties": map[string]any{"sheetId": g.sheetID, "gridProperties": map[string]any{"frozenRowCount": 1}},
				"fields":     "gridProperties.frozenRowCount",
			},
		},
	)
	return err
}

func (g *SheetsGrid) rowRange(row int) map[string]any {
	return map[string]any{
		"sheetId":          g.sheetID,
		"startRowIndex":    row - 1,
		"endRowIndex":      row,
		"startColumnIndex": 0,
		"endColumnIndex":   models.ColumnCount,
	}
}

// ColumnLetter converts a 1-based column to A1 letters: 1 is "A", 27 is "AA".
func ColumnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// CellRef returns the A1 reference of a cell.
func CellRef(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// FirstRow extracts the first row number from an A1 range such as "'2026-03'!A5:H7".
func FirstRow(a1 string) (int, error) {
	ref := a1
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	row, err := strconv.Atoi(strings.TrimPrefix(digits, "$"))
	if err != nil || row < 1 {
		return 0, fmt.Errorf("no row in range %q", a1)
	}
	return row, nil
}
