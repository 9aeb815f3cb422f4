package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/weapi"
	"github.com/goccy/go-json"
)

// plainEncoder puts the raw JSON into params so test servers can read the request fields.
type plainEncoder struct {
	err error
}

func (e plainEncoder) Encode(fields map[string]any) (*weapi.EncryptedPayload, error) {
	if e.err != nil {
		return nil, e.err
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return &weapi.EncryptedPayload{Params: string(b), EncSecKey: "test"}, nil
}

type capturedRequest struct {
	path   string
	fields map[string]any
	header http.Header
}

// newTestService starts a server that records the decoded request and replies with body.
func newTestService(t *testing.T, status int, body string) (*NeteaseService, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		captured.path = r.URL.RequestURI()
		captured.header = r.Header.Clone()
		if err := json.Unmarshal([]byte(r.PostForm.Get("params")), &captured.fields); err != nil {
			t.Errorf("failed to decode params: %v", err)
		}
		if r.PostForm.Get("encSecKey") != "test" {
			t.Errorf("expected encSecKey form field, got %q", r.PostForm.Get("encSecKey"))
		}

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	svc := NewNeteaseService(NeteaseOpts{
		BaseURL:    server.URL,
		Cookie:     "MUSIC_U=abc; __csrf=def",
		Encoder:    plainEncoder{},
		HTTPClient: server.Client(),
	})
	return svc, captured
}

func TestNeteaseService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if got := NewNeteaseService(NeteaseOpts{}).Name(); got != "NetEase Cloud Music" {
			t.Errorf("unexpected name %s", got)
		}
	})

	t.Run("FetchPlaylist", func(t *testing.T) {
		t.Run("returns ordered track ids", func(t *testing.T) {
			svc, req := newTestService(t, http.StatusOK, `{
				"code": 200,
				"playlist": {
					"name": "Favorites",
					"description": "mine",
					"trackIds": [{"id": 3}, {"id": 1}, {"id": 2}]
				}
			}`)

			detail, err := svc.FetchPlaylist(ctx, "919939187")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if detail.Name != "Favorites" || detail.Description != "mine" {
				t.Errorf("unexpected detail %+v", detail)
			}
			if strings.Join(detail.TrackIDs, ",") != "3,1,2" {
				t.Errorf("expected ids in response order, got %v", detail.TrackIDs)
			}

			if req.path != playlistDetailPath {
				t.Errorf("unexpected path %s", req.path)
			}
			if req.fields["id"] != "919939187" || req.fields["n"] != float64(1000) || req.fields["withSongs"] != true {
				t.Errorf("unexpected request fields %v", req.fields)
			}
			if req.header.Get("Cookie") != "MUSIC_U=abc; __csrf=def" {
				t.Errorf("expected cookie header, got %q", req.header.Get("Cookie"))
			}
			if req.header.Get("Referer") != "https://music.163.com/" {
				t.Errorf("expected referer header, got %q", req.header.Get("Referer"))
			}
			if !strings.HasPrefix(req.header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				t.Errorf("unexpected content type %q", req.header.Get("Content-Type"))
			}
		})

		t.Run("missing playlist is not found", func(t *testing.T) {
			svc, _ := newTestService(t, http.StatusOK, `{"code": 200}`)

			_, err := svc.FetchPlaylist(ctx, "1")
			if !errors.Is(err, models.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("non-2xx status", func(t *testing.T) {
			svc, _ := newTestService(t, http.StatusBadGateway, `oops`)

			_, err := svc.FetchPlaylist(ctx, "1")
			var apiErr *models.RemoteAPIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected RemoteAPIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusBadGateway {
				t.Errorf("expected status 502, got %d", apiErr.StatusCode)
			}
		})

		t.Run("error code in body", func(t *testing.T) {
			svc, _ := newTestService(t, http.StatusOK, `{"code": 301, "message": "login required"}`)

			_, err := svc.FetchPlaylist(ctx, "1")
			if !errors.Is(err, models.ErrRemoteAPI) {
				t.Fatalf("expected ErrRemoteAPI, got %v", err)
			}
			if !strings.Contains(err.Error(), "login required") {
				t.Errorf("expected service message in error, got %v", err)
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			svc, _ := newTestService(t, http.StatusOK, `{"code": 200,`)

			_, err := svc.FetchPlaylist(ctx, "1")
			if !errors.Is(err, models.ErrRemoteAPI) {
				t.Fatalf("expected ErrRemoteAPI, got %v", err)
			}
		})
	})

	t.Run("FetchSongs", func(t *testing.T) {
		t.Run("sends c and ids as JSON strings", func(t *testing.T) {
			svc, req := newTestService(t, http.StatusOK, `{
				"code": 200,
				"songs": [
					{"id": 2, "name": "Two", "ar": [{"id": 9, "name": "Band", "alias": []}], "al": {"id": 5, "name": "LP", "picUrl": "http://p"}, "dt": 1000},
					{"id": 1, "name": "One", "ar": [], "al": {"id": 5, "name": "LP"}, "dt": 2000}
				]
			}`)

			songs, err := svc.FetchSongs(ctx, []string{"1", "2"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(songs) != 2 {
				t.Fatalf("expected 2 songs, got %d", len(songs))
			}
			if songs[0].SongID() != "2" || songs[0].Artists[0].Name != "Band" || songs[0].Album.PicURL != "http://p" {
				t.Errorf("unexpected song %+v", songs[0])
			}

			if req.fields["c"] != `[{"id":1},{"id":2}]` {
				t.Errorf("unexpected c field %v", req.fields["c"])
			}
			if req.fields["ids"] != `[1,2]` {
				t.Errorf("unexpected ids field %v", req.fields["ids"])
			}
		})

		t.Run("no ids makes no request", func(t *testing.T) {
			svc := NewNeteaseService(NeteaseOpts{BaseURL: "http://127.0.0.1:1", Encoder: plainEncoder{}})
			songs, err := svc.FetchSongs(ctx, nil)
			if err != nil || songs != nil {
				t.Errorf("expected nil result, got %v, %v", songs, err)
			}
		})
	})

	t.Run("FetchLyric", func(t *testing.T) {
		t.Run("returns lrc text", func(t *testing.T) {
			svc, req := newTestService(t, http.StatusOK, `{"code": 200, "lrc": {"version": 1, "lyric": "[00:01.00]hi"}}`)

			lyric, err := svc.FetchLyric(ctx, "447925059")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if lyric != "[00:01.00]hi" {
				t.Errorf("unexpected lyric %q", lyric)
			}
			if req.fields["os"] != "pc" || req.fields["lv"] != "-1" || req.fields["kv"] != "-1" || req.fields["tv"] != "-1" {
				t.Errorf("unexpected request fields %v", req.fields)
			}
			if req.fields["id"] != float64(447925059) {
				t.Errorf("expected numeric id, got %v", req.fields["id"])
			}
		})

		t.Run("absent lyric is empty", func(t *testing.T) {
			svc, _ := newTestService(t, http.StatusOK, `{"code": 200, "nolyric": true}`)

			lyric, err := svc.FetchLyric(ctx, "1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if lyric != "" {
				t.Errorf("expected empty lyric, got %q", lyric)
			}
		})
	})

	t.Run("ResolvePlaybackURLs", func(t *testing.T) {
		svc, req := newTestService(t, http.StatusOK, `{
			"code": 200,
			"data": [
				{"id": 1, "url": "http://cdn/1.mp3", "br": 320000, "size": 10, "type": "mp3", "md5": "x"},
				{"id": 2, "url": null, "br": 0, "size": 0}
			]
		}`)

		urls, err := svc.ResolvePlaybackURLs(ctx, []string{"1", "2"}, models.QualityHigh)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(urls) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(urls))
		}
		if !urls[0].Available() || urls[0].URL != "http://cdn/1.mp3" || urls[0].Size != 10 {
			t.Errorf("unexpected first entry %+v", urls[0])
		}
		if urls[1].Available() {
			t.Errorf("null url should be unavailable, got %+v", urls[1])
		}

		if req.fields["level"] != "exhigh" || req.fields["br"] != float64(320000) || req.fields["encodeType"] != "aac" {
			t.Errorf("unexpected request fields %v", req.fields)
		}
	})

	t.Run("encoder failure is returned", func(t *testing.T) {
		svc := NewNeteaseService(NeteaseOpts{
			BaseURL: "http://127.0.0.1:1",
			Encoder: plainEncoder{err: models.ErrEncoding},
		})
		if _, err := svc.FetchLyric(ctx, "1"); !errors.Is(err, models.ErrEncoding) {
			t.Fatalf("expected ErrEncoding, got %v", err)
		}
	})

	t.Run("Open", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing.mp3" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte("audio-bytes"))
		}))
		defer server.Close()

		svc := NewNeteaseService(NeteaseOpts{HTTPClient: server.Client()})

		t.Run("streams body", func(t *testing.T) {
			body, size, err := svc.Open(ctx, server.URL+"/1.mp3")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer body.Close()

			data, _ := io.ReadAll(body)
			if string(data) != "audio-bytes" || size != int64(len("audio-bytes")) {
				t.Errorf("unexpected body %q size %d", data, size)
			}
		})

		t.Run("non-200 fails", func(t *testing.T) {
			_, _, err := svc.Open(ctx, server.URL+"/missing.mp3")
			if !errors.Is(err, models.ErrRemoteAPI) {
				t.Fatalf("expected ErrRemoteAPI, got %v", err)
			}
		})
	})
}
