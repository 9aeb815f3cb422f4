package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#C20C0C", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Success renders s in the palette's success style.
func Success(s string) string { return styles.ok.Render(s) }

// Failure renders s in the palette's error style.
func Failure(s string) string { return styles.err.Render(s) }

// Warning renders s in the palette's warning style.
func Warning(s string) string { return styles.warn.Render(s) }

// Muted renders s in the palette's help style.
func Muted(s string) string { return styles.help.Render(s) }
