package lavalink

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// SearchOptions describe one track lookup. Source is a shorthand
// ("youtube", "youtubemusic", "soundcloud") or a raw prefix understood by
// the node; it is ignored for URL queries.
type SearchOptions struct {
	Query       string
	Source      string
	RequestedBy any
}

// PlaylistInfo summarizes a playlist load.
type PlaylistInfo struct {
	Name          string `json:"name"`
	SelectedTrack int    `json:"selectedTrack"`
	Duration      int64  `json:"duration"`
}

// SearchResult is the shaped response of a load-tracks call.
type SearchResult struct {
	LoadType     string
	Tracks       []*Track
	PlaylistInfo *PlaylistInfo
	Exception    *loadException
}

var searchSources = map[string]string{
	"youtube":      "ytsearch",
	"youtubemusic": "ytmsearch",
	"soundcloud":   "scsearch",
}

// Search resolves a query through the least-loaded node.
func (m *Manager) Search(options SearchOptions) (*SearchResult, error) {
	if options.Query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}

	node := m.nodes.Best(MetricMemory)
	if node == nil {
		return nil, &TransportError{Op: "search", Err: fmt.Errorf("no connected node available")}
	}

	identifier := options.Query
	if !strings.HasPrefix(identifier, "http://") && !strings.HasPrefix(identifier, "https://") {
		prefix := "ytsearch"
		if options.Source != "" {
			if mapped, ok := searchSources[options.Source]; ok {
				prefix = mapped
			} else {
				prefix = options.Source
			}
		}
		identifier = prefix + ":" + identifier
	}

	raw, err := node.rest.LoadTracks(identifier)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{LoadType: raw.LoadType}
	switch raw.LoadType {
	case "track":
		var track Track
		if err := json.Unmarshal(raw.Data, &track); err != nil {
			return nil, &ProtocolError{Op: "loadtracks", Reason: err.Error()}
		}
		result.Tracks = []*Track{&track}
	case "search":
		var tracks []*Track
		if err := json.Unmarshal(raw.Data, &tracks); err != nil {
			return nil, &ProtocolError{Op: "loadtracks", Reason: err.Error()}
		}
		result.Tracks = tracks
	case "playlist":
		var playlist struct {
			Info struct {
				Name          string `json:"name"`
				SelectedTrack int    `json:"selectedTrack"`
			} `json:"info"`
			Tracks []*Track `json:"tracks"`
		}
		if err := json.Unmarshal(raw.Data, &playlist); err != nil {
			return nil, &ProtocolError{Op: "loadtracks", Reason: err.Error()}
		}
		info := &PlaylistInfo{Name: playlist.Info.Name, SelectedTrack: playlist.Info.SelectedTrack}
		for _, t := range playlist.Tracks {
			info.Duration += t.Info.Length
		}
		result.PlaylistInfo = info
		result.Tracks = playlist.Tracks
	case "error":
		var exception loadException
		if err := json.Unmarshal(raw.Data, &exception); err == nil {
			result.Exception = &exception
		}
		m.debugf("search %q failed: %s", options.Query, result.LoadType)
	case "empty":
		m.debugf("search %q matched nothing", options.Query)
	}

	for _, t := range result.Tracks {
		t.RequestedBy = options.RequestedBy
	}
	return result, nil
}
