package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ReviewerListView ViewState = iota
	ItemListView
	ConfirmView
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.Engine
	run          *tasks.DailyRun
	width        int
	height       int
	reviewerList list.Model
	itemList     list.Model
	sheet        *models.Sheet
	selected     string
	pending      tea.Cmd
	progress     tasks.ProgressUpdate
	result       *tasks.DailyResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a dashboard over engine's store. run may be nil, which disables syncing from the dashboard.
func NewModel(ctx context.Context, engine *tasks.Engine, run *tasks.DailyRun) *Model {
	return &Model{
		ctx:    ctx,
		view:   ReviewerListView,
		engine: engine,
		run:    run,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by reading the tracking sheet.
func (m *Model) Init() tea.Cmd {
	return m.fetchLoads()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.sheet != nil {
			m.reviewerList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.selected != "" {
			m.itemList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ReviewerListView:
			return m.handleReviewerKeys(msg)
		case ItemListView:
			return m.handleItemKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case RunView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoadsFetched:
		data := msg.data.(loadsData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.sheet = data.sheet
		m.setReviewers(data.loads)
		if m.view == ItemListView {
			m.setItems(m.selected)
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgRunComplete:
		data := msg.data.(runData)
		m.result = data.result
		m.err = data.err
		m.pending = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to reload, q to quit", m.err))
	}

	switch m.view {
	case ReviewerListView:
		return m.renderReviewers()
	case ItemListView:
		return m.renderItems()
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) setReviewers(loads *tasks.Loads) {
	entries := loads.List()
	items := make([]list.Item, len(entries))
	for i, l := range entries {
		items[i] = reviewerItem{load: l}
	}
	m.reviewerList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.reviewerList.Title = fmt.Sprintf("Reviewers • %s", m.sheet.Title)
	m.reviewerList.SetSize(m.width-4, m.height-8)
}

// setItems lists the open items of reviewer, oldest first as they appear in the sheet.
func (m *Model) setItems(reviewer string) {
	classifier := m.engine.Tracker().Classifier()
	var items []list.Item
	for _, it := range m.sheet.Items {
		if strings.TrimSpace(it.Reviewer) != reviewer || !it.Open() || it.ItemID == "" {
			continue
		}
		items = append(items, trackedItem{item: it, flag: classifier.Classify(it.Name, it.ItemID)})
	}
	m.itemList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.itemList.Title = fmt.Sprintf("%s • %d open", reviewer, len(items))
	m.itemList.SetSize(m.width-4, m.height-8)
}

func (m *Model) handleReviewerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		return m, m.fetchLoads()
	case key.Matches(msg, m.keys.sync):
		if m.run != nil && m.err == nil {
			m.view = ConfirmView
		}
		return m, nil
	case m.sheet == nil:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.reviewerList.SelectedItem().(reviewerItem); ok {
			m.selected = selected.load.Reviewer
			m.setItems(m.selected)
			m.view = ItemListView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.reviewerList, cmd = m.reviewerList.Update(msg)
	return m, cmd
}

func (m *Model) handleItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ReviewerListView
		return m, nil
	}

	var cmd tea.Cmd
	m.itemList, cmd = m.itemList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = ReviewerListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = RunView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = ReviewerListView
		m.result = nil
		m.err = nil
		return m, m.fetchLoads()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.sheet == nil {
		return m, nil
	}
	var cmd tea.Cmd
	switch m.view {
	case ReviewerListView:
		m.reviewerList, cmd = m.reviewerList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchLoads() tea.Cmd {
	return func() tea.Msg {
		loads, sheet, err := m.engine.Loads(m.ctx)
		return loadsFetchedMsg(loads, sheet, err)
	}
}

// startRun executes the daily run in the background; progress is drained one message at a time.
func (m *Model) startRun() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan runData, 1)

	go func() {
		result, err := m.run.Execute(m.ctx, progress)
		done <- runData{result, err}
		close(progress)
	}()

	return m.waitForRun(progress, done)
}

func (m *Model) waitForRun(progress <-chan tasks.ProgressUpdate, done <-chan runData) tea.Cmd {
	m.pending = func() tea.Msg {
		update, ok := <-progress
		if !ok {
			res := <-done
			return runCompleteMsg(res.result, res.err)
		}
		return progressUpdateMsg(update)
	}
	return m.pending
}

func (m *Model) waitForProgress() tea.Cmd {
	return m.pending
}

func (m *Model) renderReviewers() string {
	if m.sheet == nil {
		return styles.help.Render("Reading tracking sheet...")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.reload, m.keys.quit}
	if m.run != nil {
		helpKeys = []key.Binding{m.keys.enter, m.keys.sync, m.keys.reload, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s", m.reviewerList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderItems() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.itemList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Run the daily sync now?")
	info := "\nExports are read for every account, the sheet is updated and the summary is sent.\n"
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Syncing")

	var phase string
	switch m.progress.Phase {
	case tasks.Prepare:
		phase = "Preparing worksheet..."
	case tasks.Extract:
		phase = fmt.Sprintf("Reading exports (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Ingest, tasks.Sweep, tasks.Derive:
		phase = fmt.Sprintf("Updating sheet for %s", m.progress.Account)
	case tasks.Report, tasks.Notify:
		phase = "Sending summary..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to reload, q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to reload, q to quit")
	}

	added, merged, disappeared := m.result.Totals()
	title := styles.ok.Render("✓ Sync Complete")
	info := fmt.Sprintf("\nWorksheet: %s\nAdded: %d  Merged: %d  Disappeared: %d", m.result.Worksheet, added, merged, disappeared)

	var problems []string
	for _, name := range m.result.Skipped {
		problems = append(problems, fmt.Sprintf("  • %s: export unavailable", name))
	}
	for _, s := range m.result.Syncs {
		if s.Err != nil {
			problems = append(problems, fmt.Sprintf("  • %s: %v", s.Account, s.Err))
		}
	}
	if m.result.NotifyErr != nil {
		problems = append(problems, fmt.Sprintf("  • notification: %v", m.result.NotifyErr))
	}

	var failed string
	if len(problems) > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("%d problems:", len(problems))) + "\n" + strings.Join(problems, "\n")
	}

	helpKeys := []key.Binding{m.keys.reload, m.keys.quit}
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, m.help.ShortHelpView(helpKeys))
}
