// package formatter renders playlists and lyrics for export (CSV, Markdown, plain text, SRT)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// Export renders a playlist in the named format.
func Export(playlist *models.Playlist, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ExportToText(playlist)
	case FormatCSV:
		return ExportToCSV(playlist)
	case FormatMarkdown:
		return ExportToMarkdown(playlist, "")
	case FormatJSON:
		return shared.MarshalJSON(playlist, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV converts a playlist to CSV format with columns: ID, Title, Artist, Album, Duration
func ExportToCSV(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range playlist.Tracks {
		record := []string{
			song.ID,
			song.Name,
			song.Singer.Name,
			song.Album.Name,
			strconv.Itoa(song.Duration),
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

// ExportToMarkdown converts a playlist to Markdown format with optional cover image
func ExportToMarkdown(playlist *models.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", playlist.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(playlist.TrackIDs))
	if missing := len(playlist.TrackIDs) - len(playlist.Tracks); missing > 0 {
		fmt.Fprintf(&buf, "**Unavailable**: %d\n", missing)
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, song := range playlist.Tracks {
		albumPart := ""
		if song.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, song.DisplayName(), albumPart, shared.FormatDuration(song.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(playlist.Tracks))

	for i, song := range playlist.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, song.DisplayName())
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warning    error // cover download failure; the export itself still succeeded
}

// WriteMarkdownExport exports a playlist to {dir}/README.md, plus {dir}/cover.jpg
// when the first track has album art.
//
// The directory name defaults to the playlist ID.
func WriteMarkdownExport(client *http.Client, playlist *models.Playlist, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir}

	var coverFilename string
	if len(playlist.Tracks) > 0 && playlist.Tracks[0].Album.PicURL != "" {
		imageData, err := DownloadImage(client, playlist.Tracks[0].Album.PicURL)
		if err != nil {
			result.Warning = err
		} else {
			coverFilename = "cover.jpg"
			coverPath := filepath.Join(outputDir, coverFilename)
			if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
				return nil, fmt.Errorf("failed to write cover image: %w", err)
			}
			result.CoverImage = coverPath
			result.Files = append(result.Files, coverPath)
		}
	}

	markdown, err := ExportToMarkdown(playlist, coverFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate markdown: %w", err)
	}

	readmePath := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(readmePath, markdown, 0644); err != nil {
		return nil, fmt.Errorf("failed to write README: %w", err)
	}
	result.Files = append(result.Files, readmePath)

	return result, nil
}

// WriteSRT writes the song's lyric as SubRip into dir and returns the file path.
func WriteSRT(song *models.Song, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, SRTFilename(song))
	if err := os.WriteFile(path, []byte(LyricToSRT(song.LyricText())), 0644); err != nil {
		return "", fmt.Errorf("failed to write subtitles: %w", err)
	}
	return path, nil
}
