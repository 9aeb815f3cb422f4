// Package services implements the remote music API client.
//
// # NetEase Cloud Music
//
// [NeteaseService] talks to the weapi endpoints. Each request body is produced
// by a [PayloadEncoder] (normally [weapi.Encoder]) and POSTed as a form with
// the Referer, Origin, and Cookie headers the service expects:
//   - FetchPlaylist: /weapi/v6/playlist/detail
//   - FetchSongs: /weapi/v3/song/detail (batched)
//   - FetchLyric: /weapi/song/lyric
//   - ResolvePlaybackURLs: /weapi/song/enhance/player/url/v1 (batched)
//
// Open streams an audio URL with a plain GET.
//
// # Error Handling
//
// Transport failures, non-2xx statuses, malformed bodies, and non-200 "code"
// values are all reported as [models.RemoteAPIError]. A playlist response
// without a playlist object yields [models.ErrNotFound].
//
// # Throttling
//
// The client itself never limits. Callers that want a request budget wrap
// the transport with [ThrottledTransport].
package services
