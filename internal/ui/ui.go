// package ui implements the interactive terminal frontend for deck generation.
//
// The flow is linear: the outline is extracted and shown for review, the deck
// renders slide by slide on a status board, and once every slide is done the
// deck can be exported to PDF. Individual slides can be regenerated from the
// board at any point after the bulk run.
package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkbridge/slidekit/internal/formatter"
	"github.com/mkbridge/slidekit/internal/models"
	"github.com/mkbridge/slidekit/internal/shared"
	"github.com/mkbridge/slidekit/internal/styles"
	"github.com/mkbridge/slidekit/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	OutlineView
	RenderView
	BoardView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.DeckEngine
	cfg          *models.DeckConfig
	style        *styles.Definition
	pdfPath      string
	width        int
	height       int
	slideList    list.Model
	listReady    bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	busy         bool
	exportedPath string
	err          error
	notice       string
	help         help.Model
	keys         keyMap
}

// slideItem wraps [models.SlideRecord] to implement list.Item.
type slideItem struct {
	slide *models.SlideRecord
}

func statusGlyph(status models.SlideStatus) string {
	switch status {
	case models.StatusRendering:
		return palette.warn.Render("⟳")
	case models.StatusDone:
		return palette.ok.Render("✓")
	case models.StatusFailed:
		return palette.err.Render("✗")
	default:
		return "·"
	}
}

func (i slideItem) FilterValue() string { return i.slide.Title }
func (i slideItem) Title() string {
	return fmt.Sprintf("%s %d. %s", statusGlyph(i.slide.Status), i.slide.PageNumber, i.slide.Title)
}
func (i slideItem) Description() string {
	if i.slide.LastError != "" {
		return i.slide.LastError
	}
	if len(i.slide.BulletPoints) > 0 {
		return i.slide.BulletPoints[0]
	}
	return i.slide.VisualPrompt
}

type outlineMsg struct {
	slides []*models.SlideRecord
	err    error
}

type progressUpdateMsg tasks.ProgressUpdate

type renderDoneMsg struct {
	err error
}

type regenDoneMsg struct {
	slide *models.SlideRecord
	err   error
}

type exportDoneMsg struct {
	path string
	err  error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.DeckEngine, cfg *models.DeckConfig, style *styles.Definition, pdfPath string) *Model {
	return &Model{
		ctx:     ctx,
		view:    LoadingView,
		engine:  engine,
		cfg:     cfg,
		style:   style,
		pdfPath: pdfPath,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts outline extraction.
func (m *Model) Init() tea.Cmd {
	return m.extractOutline()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.slideList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case OutlineView:
			return m.handleOutlineKeys(msg)
		case BoardView:
			return m.handleBoardKeys(msg)
		case RenderView, LoadingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case outlineMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.slides))
		for i, slide := range msg.slides {
			items[i] = slideItem{slide: slide}
		}
		m.slideList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.slideList.Title = fmt.Sprintf("Outline: %d slides (%s style)", len(msg.slides), m.style.Name)
		m.slideList.SetSize(m.width-4, m.height-8)
		m.listReady = true
		m.view = OutlineView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		m.refreshSlides()
		return m, m.waitForProgress()

	case renderDoneMsg:
		m.busy = false
		m.err = msg.err
		m.refreshSlides()
		if m.progressChan != nil {
			m.progressChan = nil
		}
		m.view = BoardView
		return m, nil

	case regenDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = palette.err.Render(fmt.Sprintf("Regeneration failed: %v", msg.err))
		} else if msg.slide != nil && msg.slide.Status == models.StatusFailed {
			m.notice = palette.err.Render(msg.slide.LastError)
		} else {
			m.notice = ""
		}
		m.refreshSlides()
		return m, nil

	case exportDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = palette.err.Render(fmt.Sprintf("Export failed: %v", msg.err))
			return m, nil
		}
		m.exportedPath = msg.path
		m.view = ResultView
		return m, nil
	}

	if m.listReady {
		var cmd tea.Cmd
		m.slideList, cmd = m.slideList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != BoardView {
		msg := fmt.Sprintf("Error: %v", m.err)
		if errors.Is(m.err, shared.ErrOutlineFailed) {
			msg += "\n\nTry a shorter document, fewer slides, or different material."
		}
		return palette.err.Render(msg + "\n\nPress q to quit")
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case OutlineView:
		return m.renderOutline()
	case RenderView:
		return m.renderProgress()
	case BoardView:
		return m.renderBoard()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleOutlineKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.view = RenderView
		return m, m.startRender()
	}

	var cmd tea.Cmd
	m.slideList, cmd = m.slideList.Update(msg)
	return m, cmd
}

func (m *Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.busy {
			return m, nil
		}
		selected := m.slideList.SelectedItem()
		if item, ok := selected.(slideItem); ok {
			m.busy = true
			m.notice = palette.warn.Render(fmt.Sprintf("Regenerating slide %d...", item.slide.PageNumber))
			return m, m.regenerateSlide(item.slide.ID)
		}
		return m, nil
	case "e":
		if m.busy {
			return m, nil
		}
		if !m.engine.Store().AllDone() {
			m.notice = palette.err.Render("Export requires every slide to be rendered. Regenerate the failed slides first.")
			return m, nil
		}
		m.busy = true
		return m, m.exportPDF()
	}

	var cmd tea.Cmd
	m.slideList, cmd = m.slideList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

// refreshSlides rebuilds the list items from the store snapshot, preserving
// the cursor position.
func (m *Model) refreshSlides() {
	if !m.listReady {
		return
	}
	slides := m.engine.Store().Slides()
	items := make([]list.Item, len(slides))
	for i, slide := range slides {
		items[i] = slideItem{slide: slide}
	}
	m.slideList.SetItems(items)
}

func (m *Model) extractOutline() tea.Cmd {
	return func() tea.Msg {
		slides, err := m.engine.ExtractOutline(m.ctx, m.cfg, nil)
		return outlineMsg{slides: slides, err: err}
	}
}

func (m *Model) startRender() tea.Cmd {
	m.busy = true
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan

	go func() {
		_ = m.engine.RunAll(m.ctx, m.style, ch)
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return renderDoneMsg{}
		}
		update, ok := <-ch
		if !ok {
			return renderDoneMsg{}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) regenerateSlide(id string) tea.Cmd {
	return func() tea.Msg {
		slide, err := m.engine.Regenerate(m.ctx, id, m.style, nil)
		return regenDoneMsg{slide: slide, err: err}
	}
}

func (m *Model) exportPDF() tea.Cmd {
	return func() tea.Msg {
		path, err := formatter.WritePDFExport(m.engine.Store().Slides(), m.pdfPath)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) renderLoading() string {
	title := palette.title.Render("Analyzing document")
	return fmt.Sprintf("%s\n\nExtracting a %d-slide outline. This can take a minute for long documents.\n", title, m.cfg.SlideCount)
}

func (m *Model) renderOutline() string {
	startKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "render deck"))
	helpView := m.help.ShortHelpView([]key.Binding{startKey, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.slideList.View(), helpView)
}

func (m *Model) renderProgress() string {
	title := palette.title.Render("Rendering slides")
	hint := palette.help.Render("Each slide takes roughly 10-15 seconds; requests are paced to respect rate limits.")
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, hint, m.progress.Message, m.slideList.View())
}

func (m *Model) renderBoard() string {
	counts := m.engine.Store().Counts()
	done := counts[models.StatusDone]
	failed := counts[models.StatusFailed]

	var status string
	if failed > 0 {
		status = palette.warn.Render(fmt.Sprintf("%d/%d slides rendered, %d failed", done, m.engine.Store().Len(), failed))
	} else {
		status = palette.ok.Render(fmt.Sprintf("All %d slides rendered", done))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.regenerate, m.keys.export, m.keys.quit})

	out := fmt.Sprintf("%s\n\n%s", status, m.slideList.View())
	if m.notice != "" {
		out += "\n" + m.notice
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}

func (m *Model) renderResult() string {
	title := palette.ok.Render("✓ Deck exported")
	return fmt.Sprintf("%s\n\n%s\n\nPress q to quit.", title, m.exportedPath)
}
