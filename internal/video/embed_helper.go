package video

import (
	"net/url"
	"strings"
)

type EmbedType string

const (
	EmbedTypeNone    EmbedType = "none"
	EmbedTypeYouTube EmbedType = "youtube"
	EmbedTypeTwitch  EmbedType = "twitch"
	EmbedTypeVideo   EmbedType = "video"
	EmbedTypeIframe  EmbedType = "iframe"
)

type EmbedInfo struct {
	Type EmbedType `json:"type"`
	URL  string    `json:"url,omitempty"`
}

// GetEmbedInfo turns a tournament stream link into something a page can
// embed. Twitch players need the embedding host as parent.
func GetEmbedInfo(link *string, parent string) EmbedInfo {
	if link == nil || strings.TrimSpace(*link) == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}
	l := strings.TrimSpace(*link)

	u, err := url.Parse(l)
	if err != nil || u.Host == "" {
		return EmbedInfo{Type: EmbedTypeIframe, URL: l}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	switch host {
	case "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: l}
		}
		if id := u.Query().Get("v"); id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
		if id, ok := strings.CutPrefix(u.Path, "/live/"); ok && id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
		}
	case "twitch.tv", "m.twitch.tv":
		channel := strings.Split(strings.Trim(u.Path, "/"), "/")[0]
		if channel != "" {
			q := url.Values{}
			q.Set("channel", channel)
			q.Set("parent", parentHost(parent))
			return EmbedInfo{Type: EmbedTypeTwitch, URL: "https://player.twitch.tv/?" + q.Encode()}
		}
	}

	lower := strings.ToLower(u.Path)
	for _, ext := range []string{".mp4", ".webm", ".ogg", ".mov", ".m3u8"} {
		if strings.HasSuffix(lower, ext) {
			return EmbedInfo{Type: EmbedTypeVideo, URL: l}
		}
	}

	// Default to generic iframe and hope for the best
	return EmbedInfo{Type: EmbedTypeIframe, URL: l}
}

func parentHost(parent string) string {
	if parent == "" {
		return "localhost"
	}
	if h, _, ok := strings.Cut(parent, ":"); ok {
		return h
	}
	return parent
}
