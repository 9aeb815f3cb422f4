package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yunx/internal/tasks"
	"github.com/dustin/go-humanize"
)

// recentLines is how many transfer messages stay on screen.
const recentLines = 5

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResolvingView ViewState = iota
	TransferView
	ResultView
)

// RunFunc starts a download and reports progress on the channel.
//
// The function must not close the channel.
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) ([]tasks.AudioResult, error)

// DownloadModel shows a running download: a spinner while the caches are
// checked and URLs resolved, a progress bar during transfers, and a browsable
// result list at the end.
type DownloadModel struct {
	ctx          context.Context
	cancel       context.CancelFunc
	run          RunFunc
	view         ViewState
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan downloadOutcome
	last         tasks.ProgressUpdate
	recent       []string
	results      []tasks.AudioResult
	resultList   list.Model
	err          error
	help         help.Model
	keys         keyMap
}

// NewDownloadModel creates a model that runs the download when the program starts.
func NewDownloadModel(ctx context.Context, run RunFunc) *DownloadModel {
	ctx, cancel := context.WithCancel(ctx)
	return &DownloadModel{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		view:    ResolvingView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Results returns the download results once the run has finished.
func (m *DownloadModel) Results() ([]tasks.AudioResult, error) {
	return m.results, m.err
}

// Init starts the download and the spinner.
func (m *DownloadModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), 80)
		if m.view == ResultView {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			if m.view != ResultView {
				m.err = context.Canceled
			}
			m.cancel()
			return m, tea.Quit
		}
		if m.view == ResultView {
			var cmd tea.Cmd
			m.resultList, cmd = m.resultList.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != ResolvingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *DownloadModel) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.last = update
		if update.Phase != tasks.Transfer {
			return m, m.waitForProgress()
		}

		m.view = TransferView
		m.recent = append(m.recent, update.Message)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}

		var cmd tea.Cmd
		if update.Total > 0 {
			cmd = m.bar.SetPercent(float64(update.Step) / float64(update.Total))
		}
		return m, tea.Batch(cmd, m.waitForProgress())

	case MsgDownloadComplete:
		outcome := msg.data.(downloadOutcome)
		m.results = outcome.results
		m.err = outcome.err
		m.view = ResultView

		items := make([]list.Item, len(m.results))
		for i, res := range m.results {
			items[i] = resultItem{result: res}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-8, 0))
		m.resultList.Title = "Downloads"
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *DownloadModel) View() string {
	switch m.view {
	case ResolvingView:
		return m.renderResolving()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *DownloadModel) start() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan downloadOutcome, 1)

	go func() {
		results, err := m.run(m.ctx, m.progressChan)
		m.done <- downloadOutcome{results: results, err: err}
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *DownloadModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			outcome := <-m.done
			return downloadCompleteMsg(outcome.results, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *DownloadModel) renderResolving() string {
	msg := m.last.Message
	if msg == "" {
		msg = "Starting..."
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), msg, m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *DownloadModel) renderTransfer() string {
	title := styles.title.Render(fmt.Sprintf("Downloading %d/%d", m.last.Step, m.last.Total))

	var b strings.Builder
	for _, line := range m.recent {
		if strings.Contains(line, "✗") {
			line = styles.err.Render(line)
		}
		b.WriteString(line + "\n")
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, m.bar.View(), b.String(), m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *DownloadModel) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Download interrupted: %v\n\nPress q to quit", m.err))
	}

	ok, failed, size := Summarize(m.results)
	summary := styles.ok.Render(fmt.Sprintf("✓ %d downloaded (%s)", ok, humanize.Bytes(uint64(size))))
	if failed > 0 {
		summary += "  " + styles.warn.Render(fmt.Sprintf("%d failed", failed))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", summary, m.resultList.View(), helpView)
}

// Summarize counts successful and failed results and the bytes transferred.
func Summarize(results []tasks.AudioResult) (ok, failed int, size int64) {
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		ok++
		size += max(r.Size, 0)
	}
	return ok, failed, size
}
