package models

import (
	"errors"
	"io"
	"testing"
)

func TestParseQuality(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  Quality
		level string
		br    int
	}{
		{name: "standard", input: "standard", want: QualityStandard, level: "standard", br: 320000},
		{name: "high maps to exhigh", input: "high", want: QualityHigh, level: "exhigh", br: 320000},
		{name: "lossless", input: "lossless", want: QualityLossless, level: "lossless", br: 999000},
		{name: "hires", input: "hires", want: QualityHiRes, level: "hires", br: 999000},
		{name: "case and whitespace", input: "  HiRes ", want: QualityHiRes, level: "hires", br: 999000},
		{name: "unknown falls back to lossless", input: "ultra", want: QualityLossless, level: "lossless", br: 999000},
		{name: "empty falls back to lossless", input: "", want: QualityLossless, level: "lossless", br: 999000},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseQuality(tc.input)
			if got != tc.want {
				t.Errorf("ParseQuality(%q) = %v, want %v", tc.input, got, tc.want)
			}

			profile := got.Profile()
			if profile.Level != tc.level || profile.Bitrate != tc.br {
				t.Errorf("Profile() = %+v, want level %s br %d", profile, tc.level, tc.br)
			}
		})
	}

	t.Run("unknown quality value profile", func(t *testing.T) {
		if p := Quality("bogus").Profile(); p.Level != "lossless" {
			t.Errorf("expected lossless fallback, got %s", p.Level)
		}
	})
}

func TestSong(t *testing.T) {
	t.Run("lyric states", func(t *testing.T) {
		song := Song{ID: "1"}
		if song.HasLyric() {
			t.Error("new song should not have a lyric")
		}

		song.SetLyric("")
		if !song.HasLyric() {
			t.Error("empty lyric should still count as looked up")
		}
		if song.LyricText() != "" {
			t.Errorf("expected empty lyric text, got %q", song.LyricText())
		}

		song.SetLyric("[00:01.00]hello")
		if song.LyricText() != "[00:01.00]hello" {
			t.Errorf("unexpected lyric %q", song.LyricText())
		}
	})

	t.Run("DisplayName", func(t *testing.T) {
		if got := (Song{ID: "7"}).DisplayName(); got != "7" {
			t.Errorf("expected id fallback, got %s", got)
		}
		if got := (Song{ID: "7", Name: "Song"}).DisplayName(); got != "Song" {
			t.Errorf("expected name only, got %s", got)
		}
		if got := (Song{ID: "7", Name: "Song", Singer: Singer{Name: "Band"}}).DisplayName(); got != "Band - Song" {
			t.Errorf("expected singer and name, got %s", got)
		}
	})

	t.Run("BlobKey", func(t *testing.T) {
		if got := BlobKey("447925059"); got != "447925059.mp3" {
			t.Errorf("BlobKey() = %s", got)
		}
	})
}

func TestPlaylistDocument(t *testing.T) {
	p := Playlist{ID: "1", Name: "X", TrackIDs: []string{"1", "2"}, Tracks: []Song{{ID: "1"}}}
	doc := p.Document()

	if doc.Tracks != nil {
		t.Error("document copy should drop tracks")
	}
	if len(p.Tracks) != 1 {
		t.Error("original playlist should keep its tracks")
	}
	if len(doc.TrackIDs) != 2 {
		t.Errorf("expected 2 track ids, got %d", len(doc.TrackIDs))
	}
}

func TestRemoteAPIError(t *testing.T) {
	t.Run("matches sentinel and cause", func(t *testing.T) {
		err := error(&RemoteAPIError{Endpoint: "/weapi/song/lyric", StatusCode: 502, Err: io.ErrUnexpectedEOF})

		if !errors.Is(err, ErrRemoteAPI) {
			t.Error("expected errors.Is(err, ErrRemoteAPI)")
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Error("expected cause to be unwrapped")
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("remote error should not match ErrNotFound")
		}

		var apiErr *RemoteAPIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != 502 {
			t.Errorf("expected errors.As to recover status 502, got %+v", apiErr)
		}
	})

	t.Run("message without cause", func(t *testing.T) {
		err := &RemoteAPIError{Endpoint: "/x", StatusCode: 404}
		if err.Error() != "remote API error /x: status 404" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("CacheErr", func(t *testing.T) {
		err := CacheErr("put song", io.EOF)
		if !errors.Is(err, ErrCache) || !errors.Is(err, io.EOF) {
			t.Errorf("expected cache error wrapping cause, got %v", err)
		}
	})
}
