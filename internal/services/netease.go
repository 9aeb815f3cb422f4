// NetEase Cloud Music weapi client
//
// Every call builds a field map, encrypts it with [weapi.Encoder], and POSTs
// the form-encoded payload to a fixed endpoint.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yunx/internal/models"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/weapi"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	defaultNeteaseBaseURL = "https://music.163.com"

	playlistDetailPath = "/weapi/v6/playlist/detail?csrf_token="
	songDetailPath     = "/weapi/v3/song/detail?csrf_token="
	lyricPath          = "/weapi/song/lyric?csrf_token="
	playerURLPath      = "/weapi/song/enhance/player/url/v1?csrf_token="

	// playlistTrackLimit covers realistic playlist sizes in a single request.
	playlistTrackLimit = 1000

	neteaseUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var errMalformedResponse = errors.New("malformed JSON response")

// PayloadEncoder turns a request field map into its wire form.
type PayloadEncoder interface {
	Encode(fields map[string]any) (*weapi.EncryptedPayload, error)
}

// NeteaseArtist is an artist entry ("ar") in a song detail record.
type NeteaseArtist struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Alias []string `json:"alias"`
}

// NeteaseAlbum is the album entry ("al") in a song detail record.
type NeteaseAlbum struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

// NeteaseSong is a raw song detail record.
type NeteaseSong struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Artists  []NeteaseArtist `json:"ar"`
	Album    NeteaseAlbum    `json:"al"`
	Duration int             `json:"dt"`
}

// SongID returns the record id in the string form used by the caches.
func (s NeteaseSong) SongID() string {
	return strconv.FormatInt(s.ID, 10)
}

// PlaylistDetail is the subset of a playlist detail response the cache keeps.
type PlaylistDetail struct {
	Name        string
	Description string
	TrackIDs    []string
}

type neteaseTrackURL struct {
	ID      int64   `json:"id"`
	URL     *string `json:"url"`
	Bitrate int     `json:"br"`
	Size    int64   `json:"size"`
	Type    string  `json:"type"`
	MD5     string  `json:"md5"`
}

// NeteaseService is the remote music API client.
//
// It holds no mutable state after construction and is safe for concurrent use.
type NeteaseService struct {
	baseURL    string
	cookie     string
	encoder    PayloadEncoder
	httpClient *http.Client
	logger     *log.Logger
}

// NeteaseOpts configures a [NeteaseService].
type NeteaseOpts struct {
	BaseURL    string
	Cookie     string // opaque Cookie header value from the credential provider
	Encoder    PayloadEncoder
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewNeteaseService creates a client. Zero-valued options fall back to the
// public endpoint, a fresh [weapi.Encoder], and [http.DefaultClient].
func NewNeteaseService(opts NeteaseOpts) *NeteaseService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultNeteaseBaseURL
	}
	if opts.Encoder == nil {
		opts.Encoder = weapi.NewEncoder()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &NeteaseService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cookie:     opts.Cookie,
		encoder:    opts.Encoder,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "netease"),
	}
}

func (n *NeteaseService) Name() string {
	return "NetEase Cloud Music"
}

// doRequest encrypts fields, POSTs them to endpoint, and returns the validated JSON body.
func (n *NeteaseService) doRequest(ctx context.Context, endpoint string, fields map[string]any) ([]byte, error) {
	payload, err := n.encoder.Encode(fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+endpoint, strings.NewReader(payload.Form().Encode()))
	if err != nil {
		return nil, &models.RemoteAPIError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://music.163.com/")
	req.Header.Set("Origin", "https://music.163.com")
	req.Header.Set("User-Agent", neteaseUserAgent)
	if n.cookie != "" {
		req.Header.Set("Cookie", n.cookie)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, &models.RemoteAPIError{Endpoint: endpoint, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &models.RemoteAPIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.RemoteAPIError{Endpoint: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if !gjson.ValidBytes(body) {
		return nil, &models.RemoteAPIError{Endpoint: endpoint, Err: errMalformedResponse}
	}

	// The service reports most failures (login required, bad parameters) in
	// the body's "code" field with an HTTP 200.
	if code := gjson.GetBytes(body, "code"); code.Exists() && code.Int() != http.StatusOK {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "msg").String()
		}
		return nil, &models.RemoteAPIError{Endpoint: endpoint, StatusCode: int(code.Int()), Err: errors.New(msg)}
	}

	return body, nil
}

// FetchPlaylist retrieves a playlist's name, description, and full track id listing.
func (n *NeteaseService) FetchPlaylist(ctx context.Context, playlistID string) (*PlaylistDetail, error) {
	fields := map[string]any{
		"csrf_token": "",
		"id":         playlistID,
		"offset":     0,
		"total":      true,
		"limit":      playlistTrackLimit,
		"withSongs":  true,
		"n":          playlistTrackLimit,
	}

	body, err := n.doRequest(ctx, playlistDetailPath, fields)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Playlist *struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			TrackIDs    []struct {
				ID int64 `json:"id"`
			} `json:"trackIds"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.RemoteAPIError{Endpoint: playlistDetailPath, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if resp.Playlist == nil {
		return nil, fmt.Errorf("%w: playlist %s", models.ErrNotFound, playlistID)
	}

	detail := &PlaylistDetail{
		Name:        resp.Playlist.Name,
		Description: resp.Playlist.Description,
		TrackIDs:    make([]string, 0, len(resp.Playlist.TrackIDs)),
	}
	for _, t := range resp.Playlist.TrackIDs {
		detail.TrackIDs = append(detail.TrackIDs, strconv.FormatInt(t.ID, 10))
	}

	n.logger.Debug("fetched playlist", "playlist_id", playlistID, "tracks", len(detail.TrackIDs))
	return detail, nil
}

// FetchSongs retrieves detail records for all songIDs in one request.
//
// Records come back in the service's order; callers must correlate by id.
func (n *NeteaseService) FetchSongs(ctx context.Context, songIDs []string) ([]NeteaseSong, error) {
	if len(songIDs) == 0 {
		return nil, nil
	}

	c := make([]map[string]any, len(songIDs))
	ids := make([]any, len(songIDs))
	for i, id := range songIDs {
		c[i] = map[string]any{"id": idValue(id)}
		ids[i] = idValue(id)
	}

	cJSON, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEncoding, err)
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEncoding, err)
	}

	body, err := n.doRequest(ctx, songDetailPath, map[string]any{
		"c":          string(cJSON),
		"ids":        string(idsJSON),
		"csrf_token": "",
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Songs []NeteaseSong `json:"songs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.RemoteAPIError{Endpoint: songDetailPath, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	n.logger.Debug("fetched songs", "requested", len(songIDs), "returned", len(resp.Songs))
	return resp.Songs, nil
}

// FetchLyric returns the LRC lyric for songID, or an empty string when the service has none.
func (n *NeteaseService) FetchLyric(ctx context.Context, songID string) (string, error) {
	body, err := n.doRequest(ctx, lyricPath, map[string]any{
		"id":         idValue(songID),
		"os":         "pc",
		"lv":         "-1",
		"kv":         "-1",
		"tv":         "-1",
		"csrf_token": "",
	})
	if err != nil {
		return "", err
	}

	return gjson.GetBytes(body, "lrc.lyric").String(), nil
}

// ResolvePlaybackURLs resolves download URLs for songIDs at quality q in one request.
//
// Items the service cannot serve come back with an empty URL.
func (n *NeteaseService) ResolvePlaybackURLs(ctx context.Context, songIDs []string, q models.Quality) ([]models.PlaybackURL, error) {
	if len(songIDs) == 0 {
		return nil, nil
	}

	profile := q.Profile()
	ids := make([]any, len(songIDs))
	for i, id := range songIDs {
		ids[i] = idValue(id)
	}

	body, err := n.doRequest(ctx, playerURLPath, map[string]any{
		"ids":        ids,
		"level":      profile.Level,
		"encodeType": "aac",
		"csrf_token": "",
		"br":         profile.Bitrate,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []neteaseTrackURL `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.RemoteAPIError{Endpoint: playerURLPath, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	urls := make([]models.PlaybackURL, 0, len(resp.Data))
	for _, d := range resp.Data {
		u := models.PlaybackURL{
			ID:      strconv.FormatInt(d.ID, 10),
			Bitrate: d.Bitrate,
			Size:    d.Size,
			Type:    d.Type,
			MD5:     d.MD5,
		}
		if d.URL != nil {
			u.URL = *d.URL
		}
		urls = append(urls, u)
	}

	return urls, nil
}

// Open starts a streaming GET of an audio URL returned by [NeteaseService.ResolvePlaybackURLs].
//
// The returned size is -1 when the server does not report a length.
func (n *NeteaseService) Open(ctx context.Context, audioURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, 0, &models.RemoteAPIError{Endpoint: audioURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", neteaseUserAgent)
	req.Header.Set("Referer", "https://music.163.com/")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, 0, &models.RemoteAPIError{Endpoint: audioURL, Err: fmt.Errorf("request failed: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, &models.RemoteAPIError{Endpoint: audioURL, StatusCode: resp.StatusCode}
	}

	return resp.Body, resp.ContentLength, nil
}

// idValue sends numeric ids as JSON numbers, which is what the service's own web client does.
func idValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
