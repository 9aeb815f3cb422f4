package formatter

import (
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/shared"
)

func testPlaylist() *models.Playlist {
	return &models.Playlist{
		ID:          "919939187",
		Name:        "Favorites",
		Description: "songs I like",
		TrackIDs:    []string{"1", "2", "3"},
		Tracks: []models.Song{
			{ID: "1", Name: "First", Singer: models.Singer{Name: "Band"}, Album: models.Album{Name: "LP"}, Duration: 245_000},
			{ID: "2", Name: "Second, Part 2", Singer: models.Singer{Name: "Solo"}, Duration: 61_000},
		},
	}
}

func TestExports(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testPlaylist())
		if err != nil {
			t.Fatalf("ExportToText() error = %v", err)
		}

		out := string(data)
		for _, want := range []string{"Playlist: Favorites", "Description: songs I like", "Tracks: 2", "1. Band - First", "2. Solo - Second, Part 2"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testPlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV() error = %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if records[0][0] != "ID" || records[2][1] != "Second, Part 2" || records[1][4] != "245000" {
			t.Errorf("unexpected records %v", records)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testPlaylist(), "cover.jpg")
		if err != nil {
			t.Fatalf("ExportToMarkdown() error = %v", err)
		}

		out := string(data)
		for _, want := range []string{"# Favorites", "![Cover](cover.jpg)", "**Tracks**: 3", "**Unavailable**: 1", "1. Band - First (LP) [4:05]", "2. Solo - Second, Part 2 [1:01]"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("Export", func(t *testing.T) {
		for _, format := range []string{"", FormatText, FormatCSV, FormatMarkdown, FormatJSON} {
			if _, err := Export(testPlaylist(), format); err != nil {
				t.Errorf("Export(%q) error = %v", format, err)
			}
		}

		if _, err := Export(testPlaylist(), "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteMarkdownExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("jpeg"))
	}))
	defer server.Close()

	t.Run("with cover", func(t *testing.T) {
		playlist := testPlaylist()
		playlist.Tracks[0].Album.PicURL = server.URL + "/cover.jpg"
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(server.Client(), playlist, dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport() error = %v", err)
		}
		if result.CoverImage == "" || len(result.Files) != 2 {
			t.Errorf("unexpected result %+v", result)
		}

		readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
		if err != nil {
			t.Fatalf("README not written: %v", err)
		}
		if !strings.Contains(string(readme), "![Cover](cover.jpg)") {
			t.Error("expected cover reference in README")
		}
	})

	t.Run("cover failure is a warning", func(t *testing.T) {
		playlist := testPlaylist()
		playlist.Tracks[0].Album.PicURL = server.URL + "/missing.jpg"

		result, err := WriteMarkdownExport(server.Client(), playlist, filepath.Join(t.TempDir(), "export"))
		if err != nil {
			t.Fatalf("WriteMarkdownExport() error = %v", err)
		}
		if result.Warning == nil || result.CoverImage != "" {
			t.Errorf("expected warning without cover, got %+v", result)
		}
	})
}

func TestParseLRC(t *testing.T) {
	lrc := "[ar:Band]\n[ti:Song]\n[00:01.50]first\n\n[00:04.00][01:00.00]chorus\nno timestamp\n[00:10.123]last"

	cues := ParseLRC(lrc)
	if len(cues) != 4 {
		t.Fatalf("expected 4 cues, got %d: %+v", len(cues), cues)
	}

	want := []Cue{
		{Start: 1500 * time.Millisecond, End: 4 * time.Second, Text: "first"},
		{Start: 4 * time.Second, End: 10123 * time.Millisecond, Text: "chorus"},
		{Start: 10123 * time.Millisecond, End: time.Minute, Text: "last"},
		{Start: time.Minute, End: time.Minute + 5*time.Second, Text: "chorus"},
	}
	for i, w := range want {
		if cues[i] != w {
			t.Errorf("cue %d = %+v, want %+v", i, cues[i], w)
		}
	}
}

func TestLyricToSRT(t *testing.T) {
	t.Run("converts timed lines", func(t *testing.T) {
		got := LyricToSRT("[00:01.00]hello\n[00:03.25]world\n[00:04.00]\n")
		want := "1\n00:00:01,000 --> 00:00:03,250\nhello\n\n" +
			"2\n00:00:03,250 --> 00:00:04,000\nworld\n"
		if got != want {
			t.Errorf("LyricToSRT() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("last line lasts five seconds and rolls over minutes", func(t *testing.T) {
		got := LyricToSRT("[59:58.00]end")
		if !strings.Contains(got, "00:59:58,000 --> 01:00:03,000") {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := LyricToSRT(""); got != "" {
			t.Errorf("expected empty output, got %q", got)
		}
	})
}

func TestFilenames(t *testing.T) {
	song := &models.Song{ID: "1", Name: "A/B: C?", Singer: models.Singer{Name: "Band"}}
	if got := SRTFilename(song); got != "A_B_ C_ - Band.srt" {
		t.Errorf("SRTFilename() = %q", got)
	}

	if got := SRTFilename(&models.Song{ID: "7"}); got != "7.srt" {
		t.Errorf("expected id fallback, got %q", got)
	}

	if got := SafeFilename(".."); got != "_" {
		t.Errorf("SafeFilename(..) = %q", got)
	}
}

func TestWriteSRT(t *testing.T) {
	song := &models.Song{ID: "1", Name: "Song", Singer: models.Singer{Name: "Band"}}
	song.SetLyric("[00:01.00]hi")

	path, err := WriteSRT(song, t.TempDir())
	if err != nil {
		t.Fatalf("WriteSRT() error = %v", err)
	}
	if filepath.Base(path) != "Song - Band.srt" {
		t.Errorf("unexpected file name %s", path)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "00:00:01,000 --> 00:00:06,000") {
		t.Errorf("unexpected content %q", data)
	}
}
