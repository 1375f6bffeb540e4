package lavalink

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
)

const restTimeout = 10 * time.Second

// Rest issues HTTP calls against one node's v4 API. It never retries;
// failures surface to the caller of the triggering command as a
// TransportError and do not alter node state.
type Rest struct {
	node   *Node
	client *http.Client
}

func newRest(n *Node) *Rest {
	return &Rest{
		node:   n,
		client: &http.Client{Timeout: restTimeout},
	}
}

// VoiceServerData carries the assembled voice credentials the node needs to
// open a voice connection for a guild.
type VoiceServerData struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

// UpdateTrackData selects the remote track. A nil Encoded unloads it.
type UpdateTrackData struct {
	Encoded  *string `json:"encoded"`
	UserData any     `json:"userData,omitempty"`
}

// UpdatePlayerData is the body of a player update call. Only non-nil fields
// are sent.
type UpdatePlayerData struct {
	Track    *UpdateTrackData `json:"track,omitempty"`
	Position *int64           `json:"position,omitempty"`
	EndTime  *int64           `json:"endTime,omitempty"`
	Volume   *int             `json:"volume,omitempty"`
	Paused   *bool            `json:"paused,omitempty"`
	Filters  *FilterPayload   `json:"filters,omitempty"`
	Voice    *VoiceServerData `json:"voice,omitempty"`
}

// NodeInfo is the node metadata served by /v4/info.
type NodeInfo struct {
	Version struct {
		Semver string `json:"semver"`
		Major  int    `json:"major"`
		Minor  int    `json:"minor"`
		Patch  int    `json:"patch"`
	} `json:"version"`
	BuildTime      int64    `json:"buildTime"`
	JVM            string   `json:"jvm"`
	Lavaplayer     string   `json:"lavaplayer"`
	SourceManagers []string `json:"sourceManagers"`
	Filters        []string `json:"filters"`
}

// RestPlayer is one entry of the session player listing, used when
// reconstructing players after a resumed session.
type RestPlayer struct {
	GuildID string `json:"guildId"`
	Track   *Track `json:"track"`
	Volume  int    `json:"volume"`
	Paused  bool   `json:"paused"`
	State   struct {
		Time      int64 `json:"time"`
		Position  int64 `json:"position"`
		Connected bool  `json:"connected"`
		Ping      int   `json:"ping"`
	} `json:"state"`
}

// TrackException is the remote playback failure detail.
type TrackException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

type loadException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (r *Rest) baseURL() string {
	scheme := "http"
	if r.node.config.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/v4/", scheme, r.node.Address())
}

func (r *Rest) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, r.baseURL()+path, reader)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Authorization", r.node.config.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return &TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	return nil
}

func (r *Rest) playerPath(guildID string) string {
	return "sessions/" + r.node.SessionID() + "/players/" + guildID
}

// Update patches one guild's player on the node.
func (r *Rest) Update(guildID string, data UpdatePlayerData) error {
	return r.do(http.MethodPatch, r.playerPath(guildID)+"?noReplace=false", data, nil)
}

// DestroyPlayer removes one guild's player from the node.
func (r *Rest) DestroyPlayer(guildID string) error {
	return r.do(http.MethodDelete, r.playerPath(guildID), nil, nil)
}

// DecodeTrack asks the node to decode an encoded handle.
func (r *Rest) DecodeTrack(encoded string) (*Track, error) {
	var track Track
	path := "decodetrack?encodedTrack=" + url.QueryEscape(encoded)
	if err := r.do(http.MethodGet, path, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Info fetches the node metadata.
func (r *Rest) Info() (*NodeInfo, error) {
	var info NodeInfo
	if err := r.do(http.MethodGet, "info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Players lists the players attached to a session.
func (r *Rest) Players(sessionID string) ([]RestPlayer, error) {
	var players []RestPlayer
	if err := r.do(http.MethodGet, "sessions/"+sessionID+"/players", nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// Patch issues a generic PATCH against the node's v4 API.
func (r *Rest) Patch(path string, body any) error {
	return r.do(http.MethodPatch, path, body, nil)
}

// LoadTracks resolves a search identifier into tracks.
func (r *Rest) LoadTracks(identifier string) (*loadResult, error) {
	var result loadResult
	path := "loadtracks?identifier=" + url.QueryEscape(identifier)
	if err := r.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type loadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}
