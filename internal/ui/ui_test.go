package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/tasks"
)

func TestSummarize(t *testing.T) {
	ok, failed, size := Summarize([]tasks.AudioResult{
		{ID: "1", Size: 100},
		{ID: "2", Size: 50},
		{ID: "3", Err: models.ErrNotFound, Size: 999},
	})
	if ok != 2 || failed != 1 || size != 150 {
		t.Errorf("Summarize() = %d, %d, %d", ok, failed, size)
	}
}

func TestResultItem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		item := resultItem{result: tasks.AudioResult{
			ID:     "1",
			Source: models.SourceBlob,
			Size:   2048,
			Path:   "music/1.mp3",
			Song:   &models.Song{ID: "1", Name: "Song", Singer: models.Singer{Name: "Band"}},
		}}

		if item.Title() != "✓ Band - Song" {
			t.Errorf("Title() = %q", item.Title())
		}
		if desc := item.Description(); !strings.Contains(desc, "blob") || !strings.Contains(desc, "music/1.mp3") {
			t.Errorf("Description() = %q", desc)
		}
		if item.FilterValue() != "Band - Song" {
			t.Errorf("FilterValue() = %q", item.FilterValue())
		}
	})

	t.Run("failure", func(t *testing.T) {
		item := resultItem{result: tasks.AudioResult{ID: "X", Err: errors.New("no playback URL")}}
		if item.Title() != "✗ X" || item.Description() != "no playback URL" {
			t.Errorf("unexpected item %q / %q", item.Title(), item.Description())
		}
	})
}

func TestDownloadModel(t *testing.T) {
	run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) ([]tasks.AudioResult, error) {
		return nil, nil
	}

	t.Run("progress moves to the transfer view", func(t *testing.T) {
		m := NewDownloadModel(context.Background(), run)
		m.progressChan = make(chan tasks.ProgressUpdate, 1)

		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.ResolveURLs, Message: "Resolving 2 playback URLs"}))
		if m.view != ResolvingView || !strings.Contains(m.View(), "Resolving 2 playback URLs") {
			t.Errorf("expected resolving view, got %v: %s", m.view, m.View())
		}

		m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Transfer, Step: 1, Total: 2, Message: "[1/2] ✓ Song"}))
		if m.view != TransferView {
			t.Fatalf("expected transfer view, got %v", m.view)
		}
		if view := m.View(); !strings.Contains(view, "Downloading 1/2") || !strings.Contains(view, "[1/2] ✓ Song") {
			t.Errorf("unexpected view:\n%s", view)
		}
	})

	t.Run("keeps only recent lines", func(t *testing.T) {
		m := NewDownloadModel(context.Background(), run)
		m.progressChan = make(chan tasks.ProgressUpdate, 1)
		for i := range recentLines + 3 {
			m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Transfer, Step: i + 1, Total: 10}))
		}
		if len(m.recent) != recentLines {
			t.Errorf("expected %d recent lines, got %d", recentLines, len(m.recent))
		}
	})

	t.Run("completion shows results", func(t *testing.T) {
		m := NewDownloadModel(context.Background(), run)
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

		results := []tasks.AudioResult{{ID: "1", Size: 10}, {ID: "X", Err: models.ErrNotFound}}
		m.Update(downloadCompleteMsg(results, nil))

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		if view := m.View(); !strings.Contains(view, "1 downloaded") || !strings.Contains(view, "1 failed") {
			t.Errorf("unexpected view:\n%s", view)
		}
		if got, err := m.Results(); len(got) != 2 || err != nil {
			t.Errorf("Results() = %v, %v", got, err)
		}
	})

	t.Run("interrupted run", func(t *testing.T) {
		m := NewDownloadModel(context.Background(), run)
		m.Update(downloadCompleteMsg(nil, context.Canceled))
		if !strings.Contains(m.View(), "Download interrupted") {
			t.Errorf("unexpected view:\n%s", m.View())
		}
	})

	t.Run("quit cancels the run", func(t *testing.T) {
		m := NewDownloadModel(context.Background(), run)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context to be canceled")
		}
		if _, err := m.Results(); !errors.Is(err, context.Canceled) {
			t.Errorf("expected canceled result, got %v", err)
		}
	})

	t.Run("start delivers the outcome after progress", func(t *testing.T) {
		m := NewDownloadModel(context.Background(), func(ctx context.Context, progress chan<- tasks.ProgressUpdate) ([]tasks.AudioResult, error) {
			progress <- tasks.ProgressUpdate{Phase: tasks.CheckBlobs}
			return []tasks.AudioResult{{ID: "1"}}, nil
		})

		msg := m.start()().(Msg)
		if msg.kind != MsgProgressUpdate {
			t.Fatalf("expected progress first, got %v", msg.kind)
		}
		msg = m.waitForProgress()().(Msg)
		if msg.kind != MsgDownloadComplete {
			t.Fatalf("expected completion, got %v", msg.kind)
		}
		if outcome := msg.data.(downloadOutcome); len(outcome.results) != 1 {
			t.Errorf("unexpected outcome %+v", outcome)
		}
	})
}
