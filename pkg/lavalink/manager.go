// Package lavalink implements a client for the Lavalink audio-node wire
// protocol: it keeps websocket sessions to one or more remote nodes, routes
// playback commands over their REST API, decodes the binary track format
// and reconciles server-pushed events into per-guild player state.
package lavalink

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/lunalink/lunalink/pkg/logger"
	"github.com/lunalink/lunalink/pkg/store"
)

// SendPayloadFunc delivers an outbound voice payload (a JSON op-4 envelope)
// to the host's gateway connection for one guild.
type SendPayloadFunc func(guildID string, payload []byte) error

// Options configure the manager. ClientID is required.
type Options struct {
	ClientID               string
	ClientName             string
	Resume                 bool
	AutoResume             bool
	MovePlayersOnReconnect bool
	SortTypeNode           UsageMetric
	PreviousInArray        bool
	DefaultVolume          int
}

// Manager is the dependency root: it owns the node and player registries,
// the event bus and the persistence store, and is handed to every
// sub-entity at construction.
type Manager struct {
	options     Options
	store       store.Store
	sendPayload SendPayloadFunc
	bus         *EventBus
	nodes       *NodeRegistry
	players     *PlayerRegistry
	nodeConfigs []NodeConfig
	initiated   bool
}

// NewManager wires a manager from static node configuration. A nil store
// falls back to the file-mirrored in-memory backend.
func NewManager(nodes []NodeConfig, options Options, send SendPayloadFunc, st store.Store) *Manager {
	if options.ClientName == "" {
		options.ClientName = "lunalink/1.0"
	}
	if options.SortTypeNode == "" {
		options.SortTypeNode = MetricPlayers
	}
	if options.DefaultVolume <= 0 {
		options.DefaultVolume = 80
	}
	if st == nil {
		st = store.NewMemoryStore("data/lunalink.json")
	}

	m := &Manager{
		options:     options,
		store:       st,
		sendPayload: send,
		bus:         newEventBus(),
		nodeConfigs: nodes,
	}
	m.nodes = newNodeRegistry()
	m.players = newPlayerRegistry(m)
	return m
}

// Init validates the configuration, registers the nodes and starts their
// connection attempts. A missing client id is a startup error.
func (m *Manager) Init() error {
	if m.initiated {
		return nil
	}
	if m.options.ClientID == "" {
		return fmt.Errorf("lavalink: the ClientID option is required")
	}
	if len(m.nodeConfigs) == 0 {
		return fmt.Errorf("lavalink: at least one node must be configured")
	}

	for _, config := range m.nodeConfigs {
		node := newNode(m, config)
		m.nodes.add(node)
		m.emit(NodeEvent{Kind: EventNodeCreate, Node: node})
		go func(n *Node) {
			if err := n.Connect(); err != nil {
				m.debugf("node %s: initial connect: %v", n.Identifier(), err)
			}
		}(node)
	}

	m.initiated = true
	return nil
}

// On subscribes a handler to one event kind.
func (m *Manager) On(kind EventType, h Handler) {
	m.bus.On(kind, h)
}

// OnAny registers a catch-all event handler, mainly for mirrors like the
// telemetry publisher.
func (m *Manager) OnAny(h Handler) {
	m.bus.OnAny(h)
}

func (m *Manager) emit(e Event) {
	m.bus.emit(e)
}

func (m *Manager) debugf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	logger.Debug(message, "Lavalink")
	m.emit(DebugEvent{Message: message})
}

// Nodes returns the node registry.
func (m *Manager) Nodes() *NodeRegistry { return m.nodes }

// Players returns the player registry.
func (m *Manager) Players() *PlayerRegistry { return m.players }

// Store returns the persistence store.
func (m *Manager) Store() store.Store { return m.store }

// Options returns the effective manager options.
func (m *Manager) Options() Options { return m.options }

// CreatePlayer builds (or returns) the player for a guild.
func (m *Manager) CreatePlayer(config PlayerConfig) (*Player, error) {
	return m.players.Create(config)
}

// GetPlayer returns the guild's player, or nil.
func (m *Manager) GetPlayer(guildID string) *Player {
	return m.players.Get(guildID)
}

// DestroyPlayer tears the guild's player down if it exists.
func (m *Manager) DestroyPlayer(guildID string) error {
	player := m.players.Get(guildID)
	if player == nil {
		return nil
	}
	return player.Destroy()
}

// voiceGatewayPayload is the op-4 envelope handed to the host's send
// function whenever a player connects, disconnects or moves.
type voiceGatewayPayload struct {
	Op int `json:"op"`
	D  struct {
		GuildID   string  `json:"guild_id"`
		ChannelID *string `json:"channel_id"`
		SelfMute  bool    `json:"self_mute"`
		SelfDeaf  bool    `json:"self_deaf"`
	} `json:"d"`
}

func (m *Manager) sendVoiceUpdate(guildID string, channelID *string, mute, deaf bool) {
	if m.sendPayload == nil {
		return
	}
	payload := voiceGatewayPayload{Op: 4}
	payload.D.GuildID = guildID
	payload.D.ChannelID = channelID
	payload.D.SelfMute = mute
	payload.D.SelfDeaf = deaf

	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := m.sendPayload(guildID, raw); err != nil {
		m.debugf("guild %s: sending voice payload: %v", guildID, err)
	}
}

// PacketUpdate consumes one raw voice-gateway packet from the host. Only
// VOICE_STATE_UPDATE (for the bot's own user) and VOICE_SERVER_UPDATE are
// relevant; everything else is ignored.
func (m *Manager) PacketUpdate(data []byte) error {
	var packet struct {
		T string          `json:"t"`
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(data, &packet); err != nil {
		return &ProtocolError{Op: "packetUpdate", Reason: err.Error()}
	}

	switch packet.T {
	case "VOICE_SERVER_UPDATE":
		var d struct {
			Token    string `json:"token"`
			GuildID  string `json:"guild_id"`
			Endpoint string `json:"endpoint"`
		}
		if err := json.Unmarshal(packet.D, &d); err != nil {
			return &ProtocolError{Op: "voiceServerUpdate", Reason: err.Error()}
		}
		m.players.handleVoiceServerUpdate(d.GuildID, d.Token, d.Endpoint)
	case "VOICE_STATE_UPDATE":
		var d struct {
			GuildID   string  `json:"guild_id"`
			UserID    string  `json:"user_id"`
			SessionID string  `json:"session_id"`
			ChannelID *string `json:"channel_id"`
		}
		if err := json.Unmarshal(packet.D, &d); err != nil {
			return &ProtocolError{Op: "voiceStateUpdate", Reason: err.Error()}
		}
		if d.UserID != m.options.ClientID {
			return nil
		}
		m.players.handleVoiceStateUpdate(d.GuildID, d.SessionID, d.ChannelID)
	}
	return nil
}

// Close destroys every player and node and flushes the store.
func (m *Manager) Close() {
	for _, p := range m.players.All() {
		if err := p.Destroy(); err != nil {
			m.debugf("player %s: shutdown destroy: %v", p.GuildID(), err)
		}
	}
	for _, n := range m.nodes.All() {
		n.Destroy()
	}
	_ = m.store.Close()
}
