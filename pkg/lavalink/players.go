package lavalink

import "sync"

// voiceSession accumulates the two halves of the voice-credential handshake
// for one guild. A connection attempt is valid only once the server update
// (token+endpoint) and the bot's own state update (session id) have both
// arrived; packet order is not guaranteed.
type voiceSession struct {
	sessionID string
	token     string
	endpoint  string
	channelID string
	attempted bool
}

func (v *voiceSession) complete() bool {
	return v.token != "" && v.endpoint != "" && v.sessionID != ""
}

// PlayerRegistry owns the per-guild players and the transient voice
// credential accumulators that drive connection attempts.
type PlayerRegistry struct {
	manager *Manager

	mu      sync.Mutex
	players map[string]*Player
	voice   map[string]*voiceSession
}

func newPlayerRegistry(manager *Manager) *PlayerRegistry {
	return &PlayerRegistry{
		manager: manager,
		players: make(map[string]*Player),
		voice:   make(map[string]*voiceSession),
	}
}

// Create builds and registers a player for a guild. An existing player for
// the same guild is returned as-is.
func (r *PlayerRegistry) Create(config PlayerConfig) (*Player, error) {
	r.mu.Lock()
	if existing, ok := r.players[config.GuildID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.mu.Unlock()

	player, err := newPlayer(r.manager, config)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.players[config.GuildID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.players[config.GuildID] = player
	r.mu.Unlock()

	r.manager.emit(PlayerEvent{Kind: EventPlayerCreated, Player: player})
	return player, nil
}

// Get returns the guild's player, or nil.
func (r *PlayerRegistry) Get(guildID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players[guildID]
}

// All returns every registered player.
func (r *PlayerRegistry) All() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// ByNode returns the players currently assigned to one node.
func (r *PlayerRegistry) ByNode(nodeUUID string) []*Player {
	var out []*Player
	for _, p := range r.All() {
		if node := p.Node(); node != nil && node.UUID == nodeUUID {
			out = append(out, p)
		}
	}
	return out
}

// remove drops a destroyed player and its voice accumulator. Events that
// arrive afterwards for the guild are simply dropped by the node router.
func (r *PlayerRegistry) remove(guildID string) {
	r.mu.Lock()
	delete(r.players, guildID)
	delete(r.voice, guildID)
	r.mu.Unlock()
}

func (r *PlayerRegistry) session(guildID string) *voiceSession {
	if v, ok := r.voice[guildID]; ok {
		return v
	}
	v := &voiceSession{}
	r.voice[guildID] = v
	return v
}

// handleVoiceServerUpdate stores the token+endpoint half of the handshake.
// Fresh credentials re-arm the attempt latch so a region move reconnects.
func (r *PlayerRegistry) handleVoiceServerUpdate(guildID, token, endpoint string) {
	r.mu.Lock()
	v := r.session(guildID)
	if v.token != token || v.endpoint != endpoint {
		v.attempted = false
	}
	v.token = token
	v.endpoint = endpoint
	r.mu.Unlock()

	r.attemptConnection(guildID)
}

// handleVoiceStateUpdate stores the session-id half and drives the
// disconnect and move paths. channelID is nil when the bot was removed
// from voice.
func (r *PlayerRegistry) handleVoiceStateUpdate(guildID, sessionID string, channelID *string) {
	player := r.Get(guildID)

	if channelID == nil {
		r.mu.Lock()
		delete(r.voice, guildID)
		r.mu.Unlock()
		if player != nil {
			r.manager.debugf("player %s: voice disconnect from gateway", guildID)
			if err := player.Destroy(); err != nil {
				r.manager.debugf("player %s: destroy on disconnect: %v", guildID, err)
			}
		}
		return
	}

	if player != nil {
		if old := player.VoiceChannelID(); old != "" && old != *channelID {
			r.manager.emit(PlayerMovedEvent{Player: player, OldChannel: old, NewChannel: *channelID})
			_ = player.SetVoiceChannelID(*channelID)
		}
	}

	r.mu.Lock()
	v := r.session(guildID)
	if v.sessionID != sessionID || v.channelID != *channelID {
		v.attempted = false
	}
	v.sessionID = sessionID
	v.channelID = *channelID
	r.mu.Unlock()

	r.attemptConnection(guildID)
}

// attemptConnection dispatches the assembled credentials to the player's
// node exactly once per credential set. Duplicate or reordered packets
// cannot trigger a second attempt because the latch flips before dispatch.
func (r *PlayerRegistry) attemptConnection(guildID string) {
	player := r.Get(guildID)
	if player == nil {
		return
	}

	r.mu.Lock()
	v, ok := r.voice[guildID]
	if !ok || !v.complete() || v.attempted {
		r.mu.Unlock()
		return
	}
	v.attempted = true
	voice := VoiceServerData{Token: v.token, Endpoint: v.endpoint, SessionID: v.sessionID}
	r.mu.Unlock()

	node := player.Node()
	if err := node.rest.Update(guildID, UpdatePlayerData{Voice: &voice}); err != nil {
		r.mu.Lock()
		if v, ok := r.voice[guildID]; ok {
			v.attempted = false
		}
		r.mu.Unlock()
		r.manager.debugf("player %s: voice connection attempt failed: %v", guildID, err)
		return
	}
	r.manager.debugf("player %s: voice credentials dispatched to node %s", guildID, node.Identifier())
}

// redispatchVoice re-arms the latch and resends the stored credentials,
// used when a player restarts on a (possibly different) node.
func (r *PlayerRegistry) redispatchVoice(guildID string) {
	r.mu.Lock()
	if v, ok := r.voice[guildID]; ok && v.complete() {
		v.attempted = false
	}
	r.mu.Unlock()
	r.attemptConnection(guildID)
}
