package formatter

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/yunx/internal/models"
)

// lastCueDuration is how long the final line stays on screen.
const lastCueDuration = 5 * time.Second

var (
	lrcTimestamp = regexp.MustCompile(`\[(\d{1,3}):(\d{1,2}(?:\.\d{1,3})?)\]`)
	unsafeName   = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)
)

// Cue is one timed lyric line.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// ParseLRC extracts timed lines from LRC text, sorted by start time.
//
// A line may carry several timestamps; it yields one cue per timestamp.
// Tag lines such as [ar:...] and untimed lines are skipped. Each cue ends
// where the next one starts, and the last one lasts five seconds.
func ParseLRC(lrc string) []Cue {
	var cues []Cue
	for line := range strings.SplitSeq(lrc, "\n") {
		line = strings.TrimSpace(line)
		matches := lrcTimestamp.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 || matches[0][0] != 0 {
			continue
		}

		// Timestamps are a prefix; the text follows the last one.
		end := 0
		var starts []time.Duration
		for _, m := range matches {
			if m[0] != end {
				break
			}
			minutes, _ := strconv.Atoi(line[m[2]:m[3]])
			seconds, _ := strconv.ParseFloat(line[m[4]:m[5]], 64)
			starts = append(starts, time.Duration(minutes)*time.Minute+time.Duration(seconds*float64(time.Second)).Round(time.Millisecond))
			end = m[1]
		}

		text := strings.TrimSpace(line[end:])
		for _, s := range starts {
			cues = append(cues, Cue{Start: s, Text: text})
		}
	}

	slices.SortStableFunc(cues, func(a, b Cue) int { return int(a.Start - b.Start) })

	for i := range cues {
		if i+1 < len(cues) {
			cues[i].End = cues[i+1].Start
		} else {
			cues[i].End = cues[i].Start + lastCueDuration
		}
	}
	return cues
}

// LyricToSRT converts LRC text to SubRip. Blank cues are dropped.
func LyricToSRT(lrc string) string {
	var sb strings.Builder
	n := 0
	for _, cue := range ParseLRC(lrc) {
		if cue.Text == "" {
			continue
		}
		n++
		if n > 1 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n", n, srtTimestamp(cue.Start), srtTimestamp(cue.End), cue.Text)
	}
	return sb.String()
}

// srtTimestamp formats d as HH:MM:SS,mmm.
func srtTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// SRTFilename returns "{name} - {singer}.srt" with characters that are unsafe
// in file names replaced.
func SRTFilename(song *models.Song) string {
	name := song.Name
	if name == "" {
		name = song.ID
	}
	base := name
	if song.Singer.Name != "" {
		base = name + " - " + song.Singer.Name
	}
	return SafeFilename(base) + ".srt"
}

// SafeFilename replaces path separators and reserved characters with underscores.
func SafeFilename(name string) string {
	name = strings.TrimSpace(unsafeName.ReplaceAllString(name, "_"))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
