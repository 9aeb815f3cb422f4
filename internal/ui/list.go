package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/yunx/internal/tasks"
	"github.com/dustin/go-humanize"
)

var _ list.Item = resultItem{}

// resultItem wraps [tasks.AudioResult] to implement [list.Item].
type resultItem struct {
	result tasks.AudioResult
}

func (i resultItem) FilterValue() string { return i.name() }

func (i resultItem) Title() string {
	if i.result.Err != nil {
		return "✗ " + i.name()
	}
	return "✓ " + i.name()
}

func (i resultItem) Description() string {
	if i.result.Err != nil {
		return i.result.Err.Error()
	}

	desc := fmt.Sprintf("%s • %s", i.result.Source, humanize.Bytes(uint64(max(i.result.Size, 0))))
	if i.result.Path != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.result.Path)
	}
	return desc
}

func (i resultItem) name() string {
	if i.result.Song != nil {
		return i.result.Song.DisplayName()
	}
	return i.result.ID
}
