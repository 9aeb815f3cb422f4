package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

const webBaseURL = "https://music.163.com/#/"

var getRuntime = func() string { return runtime.GOOS }

// SongPageURL returns the web player page for a song.
func SongPageURL(id string) string {
	return webBaseURL + "song?id=" + url.QueryEscape(id)
}

// PlaylistPageURL returns the web player page for a playlist.
func PlaylistPageURL(id string) string {
	return webBaseURL + "playlist?id=" + url.QueryEscape(id)
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("%w: unsupported platform: %s", ErrNotImplemented, rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
