// Package acquire - reference classification rules.
// Helpers that decide whether a reference is a local file, a direct video
// URL, or a page that has to be resolved first.
package acquire

import (
	"net/url"
	"os"
	"path"
	"strings"
)

// videoExtensions are container formats ffmpeg decodes and that we download directly.
var videoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".mkv": true,
	".webm": true, ".avi": true, ".mpg": true, ".mpeg": true,
	".ts": true, ".flv": true, ".wmv": true, ".3gp": true, ".ogv": true,
}

// IsHTTP reports whether ref is an http(s) URL with a host.
func IsHTTP(ref string) bool {
	parsed, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// IsVideoURL checks if a URL points directly at a video file.
func IsVideoURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return videoExtensions[VideoExt(parsed.Path)]
}

// VideoExt returns the lower-cased extension of p, or "" when it is not a
// known video container.
func VideoExt(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if videoExtensions[ext] {
		return ext
	}
	return ""
}

// IsLocalFile reports whether ref names an existing regular file.
func IsLocalFile(ref string) bool {
	info, err := os.Stat(ref)
	return err == nil && info.Mode().IsRegular()
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	// Remove fragment.
	parsed.Fragment = ""

	// Remove trailing slash (but keep root "/").
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// titleFromPath derives a display title from a file or URL path.
func titleFromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	title := strings.TrimSuffix(base, path.Ext(base))
	if title == "." || title == "/" {
		return ""
	}
	return title
}
