// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// MockGrid wraps a [models.Grid] and injects failures per operation.
//
// Fail* fields are returned instead of calling the wrapped grid. Calls counts invocations by method name.
type MockGrid struct {
	Grid models.Grid

	FailRead      error
	FailAppend    error
	FailUpdate    error
	FailInsert    error
	FailHighlight error

	mu    sync.Mutex
	Calls map[string]int
}

func (m *MockGrid) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}

func (m *MockGrid) Title() string { return m.Grid.Title() }

func (m *MockGrid) ReadAll(ctx context.Context) ([][]string, error) {
	m.count("ReadAll")
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	return m.Grid.ReadAll(ctx)
}

func (m *MockGrid) AppendRows(ctx context.Context, rows [][]string) (int, error) {
	m.count("AppendRows")
	if m.FailAppend != nil {
		return 0, m.FailAppend
	}
	return m.Grid.AppendRows(ctx, rows)
}

func (m *MockGrid) UpdateCells(ctx context.Context, updates []models.CellUpdate) error {
	m.count("UpdateCells")
	if m.FailUpdate != nil {
		return m.FailUpdate
	}
	return m.Grid.UpdateCells(ctx, updates)
}

func (m *MockGrid) InsertColumn(ctx context.Context, col int) error {
	m.count("InsertColumn")
	if m.FailInsert != nil {
		return m.FailInsert
	}
	return m.Grid.InsertColumn(ctx, col)
}

func (m *MockGrid) HighlightRows(ctx context.Context, bands []models.RowBand) error {
	m.count("HighlightRows")
	if m.FailHighlight != nil {
		return m.FailHighlight
	}
	return m.Grid.HighlightRows(ctx, bands)
}

// MockNotifier records everything sent to it
type MockNotifier struct {
	FailMessage  error
	FailPin      error
	FailDocument error

	Messages  []string
	Pinned    []int64
	Documents map[string][]byte
	Captions  []string
	nextID    int64
}

func (m *MockNotifier) SendMessage(ctx context.Context, html string) (int64, error) {
	if m.FailMessage != nil {
		return 0, m.FailMessage
	}
	m.nextID++
	m.Messages = append(m.Messages, html)
	return m.nextID, nil
}

func (m *MockNotifier) PinMessage(ctx context.Context, messageID int64) error {
	if m.FailPin != nil {
		return m.FailPin
	}
	m.Pinned = append(m.Pinned, messageID)
	return nil
}

func (m *MockNotifier) SendDocument(ctx context.Context, filename string, content []byte, caption string) error {
	if m.FailDocument != nil {
		return m.FailDocument
	}
	if m.Documents == nil {
		m.Documents = make(map[string][]byte)
	}
	m.Documents[filename] = content
	m.Captions = append(m.Captions, caption)
	return nil
}

func (m *MockNotifier) Name() string { return "mock" }

// MockExtractor serves exports keyed by "<account name>/<category key>".
//
// Missing keys fail with [shared.ErrExtractionUnavailable].
type MockExtractor struct {
	Items map[string][]models.ExtractedItem
	Calls []string
}

// ExportKey builds the key used by [MockExtractor].
func ExportKey(account, category string) string {
	return account + "/" + category
}

func (m *MockExtractor) Set(account, category string, items ...models.ExtractedItem) {
	if m.Items == nil {
		m.Items = make(map[string][]models.ExtractedItem)
	}
	m.Items[ExportKey(account, category)] = items
}

func (m *MockExtractor) Extract(ctx context.Context, account shared.AccountConfig, category shared.CategoryConfig) (*models.Export, error) {
	key := ExportKey(account.Name, category.Key)
	m.Calls = append(m.Calls, key)
	items, ok := m.Items[key]
	if !ok {
		return nil, fmt.Errorf("%w: no export for %s", shared.ErrExtractionUnavailable, key)
	}
	return &models.Export{Account: account.Name, Category: category.Key, Source: "mock:" + key, Items: items}, nil
}

// Items builds extracted items from alternating id, name pairs.
func Items(pairs ...string) []models.ExtractedItem {
	items := make([]models.ExtractedItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, models.ExtractedItem{ID: pairs[i], Name: pairs[i+1]})
	}
	return items
}

// FixedChooser always picks the same index, clamped to n.
type FixedChooser int

func (f FixedChooser) IntN(n int) int {
	return min(int(f), n-1)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
