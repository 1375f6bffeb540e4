package lavalink

import (
	"fmt"
	"math/rand"
	"sync"

	json "github.com/goccy/go-json"
)

// LoopMode controls what happens when the current track finishes.
type LoopMode string

const (
	LoopOff   LoopMode = "off"
	LoopTrack LoopMode = "track"
	LoopQueue LoopMode = "queue"
)

// PlayerConfig is the durable shape of one player, persisted under
// "players.<guildId>" so a resumed session can rebuild it.
type PlayerConfig struct {
	GuildID        string   `json:"guildId"`
	VoiceChannelID string   `json:"voiceChannelId"`
	TextChannelID  string   `json:"textChannelId"`
	NodeID         string   `json:"node"`
	Volume         *int     `json:"volume,omitempty"`
	Loop           LoopMode `json:"loop"`
	Paused         bool     `json:"paused"`
	AutoPlay       bool     `json:"autoPlay"`
	AutoLeave      bool     `json:"autoLeave"`
}

type storedCurrent struct {
	Encoded     string `json:"encoded"`
	Position    int64  `json:"position"`
	RequestedBy any    `json:"requestedBy,omitempty"`
}

// ConnectOptions tune the voice connection payload.
type ConnectOptions struct {
	SetMute bool
	SetDeaf bool
}

// PlayOptions select what Play loads. With neither Track nor Encoded set,
// the head of the queue is used.
type PlayOptions struct {
	Track       *Track
	Encoded     string
	RequestedBy any
	Position    int64
	EndTime     int64
}

// Player is the client-side state machine for one guild's voice/playback
// session. Commands go out through the assigned node's REST dispatch;
// asynchronous node events come back through the handle* methods.
type Player struct {
	manager *Manager
	queue   *Queue
	filters *Filters

	mu             sync.Mutex
	guildID        string
	voiceChannelID string
	textChannelID  string
	node           *Node
	current        *Track
	previous       []*Track
	connected      bool
	playing        bool
	paused         bool
	destroyed      bool
	shuffled       bool
	autoPlay       bool
	autoLeave      bool
	volume         int
	loop           LoopMode
	position       int64
	positionTime   int64
	ping           int
	data           map[string]any
}

func newPlayer(manager *Manager, config PlayerConfig) (*Player, error) {
	if config.GuildID == "" {
		return nil, &ValidationError{Field: "guildId", Reason: "must not be empty"}
	}

	var node *Node
	if config.NodeID != "" {
		node = manager.Nodes().Get(config.NodeID)
	}
	if node == nil {
		node = manager.Nodes().Best(manager.options.SortTypeNode)
	}
	if node == nil {
		return nil, &ValidationError{Field: "node", Reason: "no connected node available"}
	}

	volume := manager.options.DefaultVolume
	if config.Volume != nil {
		if *config.Volume < 0 || *config.Volume > 100 {
			return nil, &ValidationError{Field: "volume", Reason: "must be between 0 and 100"}
		}
		volume = *config.Volume
	}
	loop := config.Loop
	if loop == "" {
		loop = LoopOff
	}

	p := &Player{
		manager:        manager,
		guildID:        config.GuildID,
		voiceChannelID: config.VoiceChannelID,
		textChannelID:  config.TextChannelID,
		node:           node,
		volume:         volume,
		loop:           loop,
		paused:         config.Paused,
		autoPlay:       config.AutoPlay,
		autoLeave:      config.AutoLeave,
		data:           make(map[string]any),
	}
	p.queue = newQueue(config.GuildID, manager.store)
	p.filters = newFilters(p)
	p.persistConfig()
	return p, nil
}

// Accessors.

func (p *Player) GuildID() string { return p.guildID }

func (p *Player) Queue() *Queue { return p.queue }

func (p *Player) Filters() *Filters { return p.filters }

func (p *Player) Node() *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.node
}

func (p *Player) Current() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Previous returns the track history: one entry by default, the full
// bounded history when the manager runs with PreviousInArray.
func (p *Player) Previous() []*Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Track, len(p.previous))
	copy(out, p.previous)
	return out
}

func (p *Player) VoiceChannelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceChannelID
}

func (p *Player) TextChannelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textChannelID
}

func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) Loop() LoopMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loop
}

func (p *Player) AutoPlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoPlay
}

func (p *Player) AutoLeave() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoLeave
}

func (p *Player) Shuffled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shuffled
}

func (p *Player) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) Ping() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ping
}

func (p *Player) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Set stores a host-defined value on the player's metadata side channel.
func (p *Player) Set(key string, value any) {
	p.mu.Lock()
	p.data[key] = value
	p.mu.Unlock()
}

// Get reads a host-defined metadata value.
func (p *Player) Get(key string) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data[key]
}

func (p *Player) persistConfig() {
	p.mu.Lock()
	volume := p.volume
	config := PlayerConfig{
		GuildID:        p.guildID,
		VoiceChannelID: p.voiceChannelID,
		TextChannelID:  p.textChannelID,
		NodeID:         p.node.UUID,
		Volume:         &volume,
		Loop:           p.loop,
		Paused:         p.paused,
		AutoPlay:       p.autoPlay,
		AutoLeave:      p.autoLeave,
	}
	p.mu.Unlock()
	_ = p.manager.store.Set("players."+p.guildID, config)
}

func (p *Player) persistCurrent(track *Track, position int64) {
	_ = p.manager.store.Set("players."+p.guildID+".current", storedCurrent{
		Encoded:     track.Encoded,
		Position:    position,
		RequestedBy: track.RequestedBy,
	})
}

// Connect sends the voice-channel join payload to the host gateway.
func (p *Player) Connect(options ConnectOptions) bool {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return false
	}
	channel := p.voiceChannelID
	p.connected = true
	p.mu.Unlock()

	p.manager.sendVoiceUpdate(p.guildID, &channel, options.SetMute, options.SetDeaf)
	return true
}

// Disconnect leaves the voice channel.
func (p *Player) Disconnect() bool {
	p.mu.Lock()
	p.connected = false
	p.voiceChannelID = ""
	p.mu.Unlock()

	p.manager.sendVoiceUpdate(p.guildID, nil, false, false)
	return true
}

// Play loads a track on the remote node. With no explicit track and an
// empty queue it reports false without error. An opaque encoded string is
// decoded first; a DecodeError propagates to the caller.
func (p *Player) Play(options PlayOptions) (bool, error) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return false, nil
	}
	p.mu.Unlock()

	track := options.Track
	if track == nil && options.Encoded != "" {
		decoded, err := DecodeTrack(options.Encoded)
		if err != nil {
			return false, err
		}
		track = decoded
	}
	if track == nil {
		track = p.queue.Shift()
	}
	if track == nil {
		return false, nil
	}
	if options.RequestedBy != nil {
		clone := *track
		clone.RequestedBy = options.RequestedBy
		track = &clone
	}

	p.persistCurrent(track, options.Position)

	p.mu.Lock()
	p.current = track
	p.position = options.Position
	node := p.node
	volume := p.volume
	p.mu.Unlock()

	encoded := track.Encoded
	data := UpdatePlayerData{
		Track:    &UpdateTrackData{Encoded: &encoded, UserData: track.RequestedBy},
		Position: &options.Position,
		Volume:   &volume,
	}
	if options.EndTime > 0 {
		data.EndTime = &options.EndTime
	}
	if err := node.rest.Update(p.guildID, data); err != nil {
		return false, err
	}

	p.mu.Lock()
	p.playing = true
	p.paused = false
	p.mu.Unlock()

	p.manager.emit(PlayerTrackEvent{Kind: EventPlayerTriggeredPlay, Player: p, Track: track})
	return true, nil
}

// Replay restarts the current track from position zero.
func (p *Player) Replay() (bool, error) {
	current := p.Current()
	if current == nil {
		return false, nil
	}
	return p.Play(PlayOptions{Track: current})
}

// Restart re-establishes voice and re-submits the current track at its last
// known position; with no current track it advances from the queue.
func (p *Player) Restart() error {
	p.mu.Lock()
	current := p.current
	position := p.position
	queueSize := p.queue.Size()
	p.mu.Unlock()

	if current == nil && queueSize == 0 {
		return nil
	}

	p.Connect(ConnectOptions{SetDeaf: true})
	p.manager.Players().redispatchVoice(p.guildID)

	var err error
	if current != nil {
		_, err = p.Play(PlayOptions{Track: current, Position: position})
	} else {
		_, err = p.Play(PlayOptions{})
	}
	return err
}

// Pause suspends playback. Already-paused players are a no-op.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.paused {
		p.mu.Unlock()
		return nil
	}
	node := p.node
	p.mu.Unlock()

	paused := true
	if err := node.rest.Update(p.guildID, UpdatePlayerData{Paused: &paused}); err != nil {
		return err
	}

	p.mu.Lock()
	p.paused = true
	p.playing = false
	p.mu.Unlock()
	p.persistConfig()

	p.manager.emit(PlayerEvent{Kind: EventPlayerPaused, Player: p})
	return nil
}

// Resume continues playback. Already-playing players are a no-op.
func (p *Player) Resume() error {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return nil
	}
	node := p.node
	p.mu.Unlock()

	paused := false
	if err := node.rest.Update(p.guildID, UpdatePlayerData{Paused: &paused}); err != nil {
		return err
	}

	p.mu.Lock()
	p.paused = false
	p.playing = true
	p.mu.Unlock()
	p.persistConfig()

	p.manager.emit(PlayerEvent{Kind: EventPlayerResumedPlay, Player: p})
	return nil
}

// Stop unloads the remote track. With destroy set the player is fully torn
// down; otherwise only the queue is cleared.
func (p *Player) Stop(destroy bool) (bool, error) {
	p.mu.Lock()
	// Gate on a loaded track, not the playing flag: a paused player still
	// has a remote track to unload.
	if p.destroyed || p.current == nil {
		p.mu.Unlock()
		return false, nil
	}
	node := p.node
	p.mu.Unlock()

	if err := node.rest.Update(p.guildID, UpdatePlayerData{Track: &UpdateTrackData{Encoded: nil}}); err != nil {
		return false, err
	}

	p.mu.Lock()
	p.playing = false
	p.paused = false
	p.current = nil
	p.mu.Unlock()
	_ = p.manager.store.Delete("players." + p.guildID + ".current")

	if destroy {
		if err := p.Destroy(); err != nil {
			return false, err
		}
	} else {
		p.queue.Clear()
	}

	p.manager.emit(PlayerEvent{Kind: EventPlayerTriggeredStop, Player: p})
	return true, nil
}

// Skip advances playback. Without a position it replays the logical
// "finished" flow; with one it promotes that queue entry directly, without
// consulting loop mode. Positions are zero-based queue indexes.
func (p *Player) Skip(position ...int) (bool, error) {
	if len(position) > 0 {
		return p.skipTo(position[0])
	}

	p.mu.Lock()
	autoPlay := p.autoPlay
	shuffled := p.shuffled
	p.mu.Unlock()

	if p.queue.Size() == 0 {
		// Skipping off the end: continue via autoplay when it can find a
		// follow-up, otherwise stop. The remote TrackEnd for an unload
		// carries reason "stopped", which never autoplays, so the
		// recommendation runs here directly.
		if autoPlay {
			if current := p.Current(); current != nil && p.autoplayRecommend(current) {
				p.manager.emit(PlayerTrackEvent{Kind: EventPlayerTriggeredSkip, Player: p, Track: current})
				return true, nil
			}
		}
		return p.Stop(false)
	}

	if shuffled {
		tracks := p.queue.All()
		i := rand.Intn(len(tracks))
		tracks[0], tracks[i] = tracks[i], tracks[0]
		p.queue.SetTracks(tracks)
	}

	old := p.Current()
	ok, err := p.Play(PlayOptions{})
	if err != nil || !ok {
		return ok, err
	}
	p.manager.emit(PlayerTrackEvent{Kind: EventPlayerTriggeredSkip, Player: p, Track: old})
	return true, nil
}

func (p *Player) skipTo(position int) (bool, error) {
	if position < 0 || position >= p.queue.Size() {
		return false, &ValidationError{Field: "position", Reason: "out of queue range"}
	}

	track := p.queue.Remove(position)
	if track == nil {
		return false, &ValidationError{Field: "position", Reason: "out of queue range"}
	}

	p.persistCurrent(track, 0)

	p.mu.Lock()
	old := p.current
	p.current = track
	p.position = 0
	node := p.node
	p.mu.Unlock()

	encoded := track.Encoded
	err := node.rest.Update(p.guildID, UpdatePlayerData{Track: &UpdateTrackData{Encoded: &encoded}})
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	p.playing = true
	p.paused = false
	p.mu.Unlock()

	p.manager.emit(PlayerTrackEvent{Kind: EventPlayerTriggeredSkip, Player: p, Track: old})
	return true, nil
}

// Seek jumps to a position within the current track.
func (p *Player) Seek(position int64) error {
	p.mu.Lock()
	current := p.current
	node := p.node
	p.mu.Unlock()

	if current == nil {
		return &ValidationError{Field: "position", Reason: "no track is loaded"}
	}
	if position < 0 || position > current.Info.Length {
		return &ValidationError{Field: "position", Reason: "outside the track duration"}
	}
	if !current.Info.IsSeekable {
		return &ValidationError{Field: "position", Reason: "track is not seekable"}
	}

	if err := node.rest.Update(p.guildID, UpdatePlayerData{Position: &position}); err != nil {
		return err
	}

	p.mu.Lock()
	old := p.position
	p.position = position
	p.mu.Unlock()
	p.persistCurrent(current, position)

	p.manager.emit(PlayerValueEvent{Kind: EventPlayerTriggeredSeek, Player: p, OldValue: old, NewValue: position})
	return nil
}

// SetVolume updates the playback volume. Values outside [0,100] are
// rejected before any remote call.
func (p *Player) SetVolume(volume int) error {
	if volume < 0 || volume > 100 {
		return &ValidationError{Field: "volume", Reason: "must be between 0 and 100"}
	}

	p.mu.Lock()
	node := p.node
	old := p.volume
	p.mu.Unlock()

	if err := node.rest.Update(p.guildID, UpdatePlayerData{Volume: &volume}); err != nil {
		return err
	}

	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	p.persistConfig()

	p.manager.emit(PlayerValueEvent{Kind: EventPlayerVolumeChanged, Player: p, OldValue: old, NewValue: volume})
	return nil
}

// SetLoop switches the loop mode between off, track and queue.
func (p *Player) SetLoop(mode LoopMode) error {
	switch mode {
	case LoopOff, LoopTrack, LoopQueue:
	default:
		return &ValidationError{Field: "loop", Reason: "must be off, track or queue"}
	}

	p.mu.Lock()
	old := p.loop
	p.loop = mode
	p.mu.Unlock()
	p.persistConfig()

	p.manager.emit(PlayerValueEvent{Kind: EventPlayerLoopChanged, Player: p, OldValue: old, NewValue: mode})
	return nil
}

// SetAutoPlay toggles source-recommendation autoplay after queue exhaustion.
func (p *Player) SetAutoPlay(enabled bool) {
	p.mu.Lock()
	p.autoPlay = enabled
	p.mu.Unlock()
	p.persistConfig()
}

// SetAutoLeave makes the player destroy itself once nothing is left to play.
func (p *Player) SetAutoLeave(enabled bool) {
	p.mu.Lock()
	p.autoLeave = enabled
	p.mu.Unlock()
	p.persistConfig()
}

// SetShuffled toggles random promotion on skip.
func (p *Player) SetShuffled(enabled bool) {
	p.mu.Lock()
	p.shuffled = enabled
	p.mu.Unlock()
}

// Shuffle randomizes the queue order.
func (p *Player) Shuffle() bool {
	if p.queue.Size() < 2 {
		return false
	}
	p.queue.Shuffle()
	return true
}

// SetVoiceChannelID retargets the player's voice channel.
func (p *Player) SetVoiceChannelID(channelID string) error {
	if channelID == "" {
		return &ValidationError{Field: "voiceChannelId", Reason: "must not be empty"}
	}
	p.mu.Lock()
	p.voiceChannelID = channelID
	p.mu.Unlock()
	p.persistConfig()
	return nil
}

// SetTextChannelID updates the associated text channel.
func (p *Player) SetTextChannelID(channelID string) error {
	if channelID == "" {
		return &ValidationError{Field: "textChannelId", Reason: "must not be empty"}
	}
	p.mu.Lock()
	p.textChannelID = channelID
	p.mu.Unlock()
	p.persistConfig()
	return nil
}

// TransferNode migrates the player to another node. With a loaded track or
// a pending queue the full restart sequence runs on the new node before the
// swap is committed; on failure the player stays on the old node.
func (p *Player) TransferNode(node *Node) (bool, error) {
	if node == nil || node.State() == NodeStateDestroyed {
		return false, &ValidationError{Field: "node", Reason: "not a usable node"}
	}

	p.mu.Lock()
	old := p.node
	if old == node {
		p.mu.Unlock()
		return true, nil
	}
	hasWork := p.current != nil || p.queue.Size() > 0
	p.node = node
	p.mu.Unlock()

	var err error
	if hasWork {
		err = p.Restart()
	} else {
		p.Connect(ConnectOptions{})
		p.manager.Players().redispatchVoice(p.guildID)
	}
	if err != nil {
		p.mu.Lock()
		p.node = old
		p.mu.Unlock()
		return false, err
	}

	p.persistConfig()
	p.manager.emit(PlayerSwitchedNodeEvent{Player: p, OldNode: old.UUID, NewNode: node.UUID})
	return true, nil
}

// Destroy disconnects voice, clears the queue and removes the player from
// the registry. Safe to call more than once.
func (p *Player) Destroy() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil
	}
	p.destroyed = true
	connected := p.connected
	node := p.node
	p.mu.Unlock()

	if connected {
		p.Disconnect()
	}
	if err := node.rest.DestroyPlayer(p.guildID); err != nil {
		p.manager.debugf("player %s: remote destroy: %v", p.guildID, err)
	}
	p.queue.Clear()
	_ = p.manager.store.Delete("players." + p.guildID)
	_ = p.manager.store.Delete("players." + p.guildID + ".current")
	p.manager.Players().remove(p.guildID)

	p.manager.debugf("player %s destroyed", p.guildID)
	p.manager.emit(PlayerEvent{Kind: EventPlayerDestroyed, Player: p})
	return nil
}

// Internal transitions driven by node-routed events.

func (p *Player) markNotPlaying() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) applyState(state PlayerState) {
	p.mu.Lock()
	p.connected = state.Connected
	p.position = state.Position
	p.positionTime = state.Time
	p.ping = state.Ping
	p.mu.Unlock()
}

func (p *Player) setCurrent(track *Track, position int64) {
	p.mu.Lock()
	p.current = track
	p.position = position
	p.playing = true
	p.mu.Unlock()
}

func (p *Player) clearCurrent() {
	p.mu.Lock()
	p.current = nil
	p.position = 0
	p.mu.Unlock()
	_ = p.manager.store.Delete("players." + p.guildID + ".current")
}

func (p *Player) handleTrackStart() {
	p.mu.Lock()
	p.playing = true
	p.paused = false
	current := p.current
	p.mu.Unlock()

	p.manager.emit(TrackStartEvent{Player: p, Track: current})
}

// handleTrackEnd walks the advance ladder in fixed order: failure reasons
// bypass loop and autoplay, replaced is a no-op, then loop track, loop
// queue, pending queue, autoplay, auto-leave, and finally queue exhaustion.
func (p *Player) handleTrackEnd(endTrack *Track, reason string) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	current := p.current
	finished := endTrack
	if finished == nil {
		finished = current
	}
	p.playing = false
	p.paused = false
	if finished != nil {
		if p.manager.options.PreviousInArray {
			p.previous = append(p.previous, finished)
		} else {
			p.previous = []*Track{finished}
		}
	}
	loop := p.loop
	autoPlay := p.autoPlay
	autoLeave := p.autoLeave
	node := p.node
	p.mu.Unlock()

	p.manager.emit(TrackEndEvent{Player: p, Track: finished, Reason: reason})

	switch reason {
	case "loadFailed", "cleanup":
		if p.queue.Size() > 0 {
			if _, err := p.Play(PlayOptions{}); err != nil {
				p.manager.debugf("player %s: advancing after %s: %v", p.guildID, reason, err)
			}
			return
		}
		p.clearCurrent()
		p.queue.Clear()
		return
	case "replaced":
		return
	}

	if loop == LoopTrack && current != nil {
		encoded := current.Encoded
		position := int64(0)
		err := node.rest.Update(p.guildID, UpdatePlayerData{
			Track:    &UpdateTrackData{Encoded: &encoded},
			Position: &position,
		})
		if err != nil {
			p.manager.debugf("player %s: looping track: %v", p.guildID, err)
		}
		return
	}

	if loop == LoopQueue && current != nil {
		requeued := *current
		requeued.Info.Position = 0
		p.queue.Add(&requeued)
		if _, err := p.Play(PlayOptions{}); err != nil {
			p.manager.debugf("player %s: looping queue: %v", p.guildID, err)
		}
		return
	}

	if p.queue.Size() > 0 {
		if _, err := p.Play(PlayOptions{}); err != nil {
			p.manager.debugf("player %s: advancing queue: %v", p.guildID, err)
		}
		return
	}

	if autoPlay && reason != "stopped" && current != nil && p.autoplayRecommend(current) {
		return
	}

	if autoLeave {
		p.clearCurrent()
		if err := p.Destroy(); err != nil {
			p.manager.debugf("player %s: auto-leave destroy: %v", p.guildID, err)
		}
		p.manager.emit(PlayerEvent{Kind: EventAutoLeaved, Player: p})
		p.manager.emit(QueueEndEvent{Player: p})
		return
	}

	p.clearCurrent()
	p.queue.Clear()
	p.manager.emit(QueueEndEvent{Player: p})
}

// autoplayRecommend runs a source-specific recommendation search for the
// finished track, enqueues one random result and plays it. It reports
// whether playback continued.
func (p *Player) autoplayRecommend(finished *Track) bool {
	query := autoplayQuery(finished.Info)
	if query == "" {
		return false
	}

	result, err := p.manager.Search(SearchOptions{Query: query})
	if err != nil || len(result.Tracks) == 0 {
		p.manager.debugf("player %s: autoplay search failed", p.guildID)
		return false
	}

	pick := result.Tracks[rand.Intn(len(result.Tracks))]
	p.queue.Add(pick)
	if _, err := p.Play(PlayOptions{}); err != nil {
		p.manager.debugf("player %s: autoplay: %v", p.guildID, err)
		return false
	}
	p.manager.debugf("player %s: autoplaying %q", p.guildID, pick.Info.Title)
	return true
}

func autoplayQuery(info TrackInfo) string {
	switch info.SourceName {
	case "youtube", "youtubemusic":
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s&list=RD%s", info.Identifier, info.Identifier)
	default:
		return ""
	}
}

func (p *Player) handleTrackStuck(thresholdMs int64) {
	p.manager.emit(TrackStuckEvent{Player: p, Track: p.Current(), ThresholdMs: thresholdMs})
}

func (p *Player) handleTrackException(exception *TrackException) {
	p.manager.emit(TrackExceptionEvent{Player: p, Track: p.Current(), Exception: exception})
}

func (p *Player) handleSocketClosed(code int, reason string, byRemote bool) {
	p.manager.emit(SocketClosedEvent{Player: p, Code: code, Reason: reason, ByRemote: byRemote})
}

// MarshalJSON exposes a read-only view of the player for status surfaces.
func (p *Player) MarshalJSON() ([]byte, error) {
	p.mu.Lock()
	view := struct {
		GuildID        string   `json:"guildId"`
		VoiceChannelID string   `json:"voiceChannelId"`
		TextChannelID  string   `json:"textChannelId"`
		Node           string   `json:"node"`
		Connected      bool     `json:"connected"`
		Playing        bool     `json:"playing"`
		Paused         bool     `json:"paused"`
		Volume         int      `json:"volume"`
		Loop           LoopMode `json:"loop"`
		Position       int64    `json:"position"`
		Ping           int      `json:"ping"`
		Current        *Track   `json:"current,omitempty"`
		QueueSize      int      `json:"queueSize"`
	}{
		GuildID:        p.guildID,
		VoiceChannelID: p.voiceChannelID,
		TextChannelID:  p.textChannelID,
		Node:           p.node.Identifier(),
		Connected:      p.connected,
		Playing:        p.playing,
		Paused:         p.paused,
		Volume:         p.volume,
		Loop:           p.loop,
		Position:       p.position,
		Ping:           p.ping,
		Current:        p.current,
	}
	p.mu.Unlock()
	view.QueueSize = p.queue.Size()
	return json.Marshal(view)
}
