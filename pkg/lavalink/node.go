package lavalink

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// NodeState is the connection state of a node.
type NodeState string

const (
	NodeStateIdle         NodeState = "idle"
	NodeStateConnecting   NodeState = "connecting"
	NodeStateOpen         NodeState = "open"
	NodeStateClosed       NodeState = "closed"
	NodeStateReconnecting NodeState = "reconnecting"
	NodeStateDestroyed    NodeState = "destroyed"
)

// NodeConfig is the static configuration of one remote audio node.
type NodeConfig struct {
	Host          string
	Port          int
	Password      string
	Secure        bool
	Identifier    string
	RetryAmount   int
	RetryDelay    time.Duration
	ResumeTimeout time.Duration
}

// NodeStats is the point-in-time usage snapshot pushed by the node.
type NodeStats struct {
	Players        int   `json:"players"`
	PlayingPlayers int   `json:"playingPlayers"`
	Uptime         int64 `json:"uptime"`
	Memory         struct {
		Free       int64 `json:"free"`
		Used       int64 `json:"used"`
		Allocated  int64 `json:"allocated"`
		Reservable int64 `json:"reservable"`
	} `json:"memory"`
	CPU struct {
		Cores        int     `json:"cores"`
		SystemLoad   float64 `json:"systemLoad"`
		LavalinkLoad float64 `json:"lavalinkLoad"`
	} `json:"cpu"`
}

// Node owns one websocket session to one remote audio node. Inbound
// messages are processed one at a time on a single read loop, so the ready
// payload is always handled before any event traffic of that connection.
type Node struct {
	manager *Manager
	UUID    string
	config  NodeConfig
	rest    *Rest

	mu             sync.Mutex
	state          NodeState
	conn           *websocket.Conn
	sessionID      string
	resumed        bool
	attempts       int
	reconnectTimer *time.Timer
	stats          *NodeStats
	info           *NodeInfo
}

func newNode(manager *Manager, config NodeConfig) *Node {
	if config.Password == "" {
		config.Password = "youshallnotpass"
	}
	if config.RetryAmount <= 0 {
		config.RetryAmount = 5
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}
	if config.ResumeTimeout <= 0 {
		config.ResumeTimeout = 60 * time.Second
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	n := &Node{
		manager: manager,
		// Deterministic so persisted state keyed by node survives restarts.
		UUID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(addr)).String()[:8],
		config: config,
		state:  NodeStateIdle,
	}
	n.rest = newRest(n)
	return n
}

// Address returns "host:port".
func (n *Node) Address() string {
	return fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
}

// Identifier returns the configured human identifier, or the address.
func (n *Node) Identifier() string {
	if n.config.Identifier != "" {
		return n.config.Identifier
	}
	return n.Address()
}

// State returns the current connection state.
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Connected reports whether the websocket session is open.
func (n *Node) Connected() bool {
	return n.State() == NodeStateOpen
}

// SessionID returns the session identifier issued by the node. It is valid
// only while connected.
func (n *Node) SessionID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sessionID
}

// Stats returns the last usage snapshot, or nil before the first stats
// payload.
func (n *Node) Stats() *NodeStats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

// Info returns the node metadata fetched on ready.
func (n *Node) Info() *NodeInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.info
}

// Rest returns the node's REST dispatcher.
func (n *Node) Rest() *Rest {
	return n.rest
}

func (n *Node) sessionKey() string {
	return "nodes." + n.UUID + ".sessionId"
}

// Connect opens the websocket session. A pending reconnect timer is
// cancelled first so a duplicate socket can never be dialed.
func (n *Node) Connect() error {
	n.mu.Lock()
	switch n.state {
	case NodeStateDestroyed:
		n.mu.Unlock()
		return &TransportError{Op: "connect", Err: fmt.Errorf("node %s is destroyed", n.Identifier())}
	case NodeStateConnecting, NodeStateOpen:
		n.mu.Unlock()
		return nil
	}
	if n.reconnectTimer != nil {
		n.reconnectTimer.Stop()
		n.reconnectTimer = nil
	}
	n.state = NodeStateConnecting
	n.mu.Unlock()

	headers := http.Header{}
	headers.Set("Authorization", n.config.Password)
	headers.Set("User-Id", n.manager.options.ClientID)
	headers.Set("Client-Name", n.manager.options.ClientName)
	if n.manager.options.Resume {
		var prior string
		if ok, _ := n.manager.store.Get(n.sessionKey(), &prior); ok && prior != "" {
			headers.Set("Session-Id", prior)
		}
	}

	scheme := "ws"
	if n.config.Secure {
		scheme = "wss"
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(fmt.Sprintf("%s://%s/v4/websocket", scheme, n.Address()), headers)
	if err != nil {
		n.manager.emit(NodeErrorEvent{Node: n, Err: err})
		n.handleClose(websocket.CloseAbnormalClosure, err.Error())
		return &TransportError{Op: "connect", Err: err}
	}

	n.mu.Lock()
	if n.state == NodeStateDestroyed {
		n.mu.Unlock()
		conn.Close()
		return nil
	}
	n.conn = conn
	n.state = NodeStateOpen
	n.mu.Unlock()

	n.manager.debugf("node %s connected", n.Identifier())
	n.manager.emit(NodeEvent{Kind: EventNodeConnected, Node: n})

	go n.readLoop(conn)
	return nil
}

func (n *Node) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			reason := err.Error()
			if closeErr, ok := err.(*websocket.CloseError); ok {
				code = closeErr.Code
				reason = closeErr.Text
			}
			n.handleClose(code, reason)
			return
		}
		n.handleMessage(message)
	}
}

// handleClose drives the recovery path for both remote closes and dial
// failures: reconnect with backoff while the retry budget lasts, then
// terminal destruction.
func (n *Node) handleClose(code int, reason string) {
	n.mu.Lock()
	if n.state == NodeStateDestroyed {
		n.mu.Unlock()
		return
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	// The session identifier is invalid past this point; it must be
	// re-obtained (or resumed) on the next connection.
	n.sessionID = ""
	retry := n.attempts < n.config.RetryAmount
	if retry {
		n.state = NodeStateClosed
	} else {
		n.state = NodeStateDestroyed
	}
	n.mu.Unlock()

	for _, p := range n.players() {
		p.markNotPlaying()
	}
	if !n.manager.options.Resume {
		// A non-resumable disconnect makes the persisted id stale.
		_ = n.manager.store.Delete(n.sessionKey())
	}

	n.manager.debugf("node %s disconnected with code %d and reason %q", n.Identifier(), code, reason)
	n.manager.emit(NodeDisconnectEvent{Node: n, Code: code, Reason: reason})

	if retry {
		n.scheduleReconnect()
	} else {
		n.manager.debugf("node %s exhausted its retry budget", n.Identifier())
		n.manager.emit(NodeEvent{Kind: EventNodeDestroyed, Node: n})
	}
}

func (n *Node) scheduleReconnect() {
	n.mu.Lock()
	if n.state == NodeStateDestroyed || n.reconnectTimer != nil {
		n.mu.Unlock()
		return
	}
	n.state = NodeStateReconnecting
	n.attempts++
	n.reconnectTimer = time.AfterFunc(n.config.RetryDelay, func() {
		n.Connect()
	})
	n.mu.Unlock()

	players := n.players()
	if len(players) > 0 && n.manager.options.MovePlayersOnReconnect {
		target := n.manager.Nodes().Best(n.manager.options.SortTypeNode)
		if target == nil {
			n.manager.debugf("node %s: no node available to move %d players", n.Identifier(), len(players))
		} else {
			n.manager.debugf("node %s: moving %d players to node %s", n.Identifier(), len(players), target.Identifier())
			for _, p := range players {
				if _, err := p.TransferNode(target); err != nil {
					n.manager.debugf("player %s: migration failed: %v", p.GuildID(), err)
				}
			}
		}
	}

	n.manager.debugf("node %s is attempting to reconnect", n.Identifier())
	n.manager.emit(NodeEvent{Kind: EventNodeReconnect, Node: n})
}

func (n *Node) handleMessage(message []byte) {
	var base struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		n.protocolError("message", "unparseable payload")
		return
	}

	switch base.Op {
	case "ready":
		n.handleReady(message)
	case "stats":
		var stats NodeStats
		if err := json.Unmarshal(message, &stats); err != nil {
			n.protocolError("stats", err.Error())
			return
		}
		n.mu.Lock()
		n.stats = &stats
		n.mu.Unlock()
	case "playerUpdate":
		n.handlePlayerUpdate(message)
	case "event":
		n.handleEvent(message)
	default:
		n.protocolError("message", "unknown op "+base.Op)
	}
}

func (n *Node) handleReady(message []byte) {
	var payload struct {
		Resumed   bool   `json:"resumed"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(message, &payload); err != nil {
		n.protocolError("ready", err.Error())
		return
	}

	n.mu.Lock()
	n.sessionID = payload.SessionID
	n.resumed = payload.Resumed
	n.attempts = 0
	n.mu.Unlock()

	_ = n.manager.store.Set(n.sessionKey(), payload.SessionID)

	if info, err := n.rest.Info(); err != nil {
		n.manager.debugf("node %s: fetching info: %v", n.Identifier(), err)
	} else {
		n.mu.Lock()
		n.info = info
		n.mu.Unlock()
	}

	if n.manager.options.Resume {
		err := n.rest.Patch("sessions/"+payload.SessionID, map[string]any{
			"resuming": true,
			"timeout":  int(n.config.ResumeTimeout.Seconds()),
		})
		if err != nil {
			n.manager.debugf("node %s: enabling resume: %v", n.Identifier(), err)
		}
	}

	n.manager.debugf("node %s is ready (resumed=%v)", n.Identifier(), payload.Resumed)
	n.manager.emit(NodeEvent{Kind: EventNodeReady, Node: n})

	if n.manager.options.AutoResume {
		if players := n.players(); len(players) > 0 {
			for _, p := range players {
				if err := p.Restart(); err != nil {
					n.manager.debugf("player %s: auto-resume failed: %v", p.GuildID(), err)
				}
			}
			n.manager.emit(NodeEvent{Kind: EventNodeAutoResumed, Node: n})
		}
	}

	if n.manager.options.Resume && payload.Resumed {
		n.resumePlayers(payload.SessionID)
	}
}

// resumePlayers reconstructs every player the node still knows about from
// persisted state after a resumed session.
func (n *Node) resumePlayers(sessionID string) {
	remote, err := n.rest.Players(sessionID)
	if err != nil {
		n.manager.debugf("node %s: listing resumed players: %v", n.Identifier(), err)
		return
	}

	for _, rp := range remote {
		guildID := rp.GuildID
		var config PlayerConfig
		ok, err := n.manager.store.Get("players."+guildID, &config)
		if err != nil || !ok {
			continue
		}
		config.GuildID = guildID
		config.NodeID = n.UUID

		player, err := n.manager.Players().Create(config)
		if err != nil {
			n.manager.debugf("player %s: reconstruction failed: %v", guildID, err)
			continue
		}
		player.Connect(ConnectOptions{})

		var current storedCurrent
		if ok, _ := n.manager.store.Get("players."+guildID+".current", &current); ok && current.Encoded != "" {
			if track, err := DecodeTrack(current.Encoded); err != nil {
				n.manager.debugf("player %s: decoding persisted track: %v", guildID, err)
			} else {
				player.setCurrent(track, current.Position)
			}
		}

		var snap queueSnapshot
		if ok, _ := n.manager.store.Get("queues."+guildID, &snap); ok {
			tracks := make([]*Track, 0, len(snap.Tracks))
			for _, encoded := range snap.Tracks {
				track, err := DecodeTrack(encoded)
				if err != nil {
					n.manager.debugf("player %s: decoding queued track: %v", guildID, err)
					continue
				}
				tracks = append(tracks, track)
			}
			_ = n.manager.store.Delete("queues." + guildID)
			player.Queue().Add(tracks...)
		}

		n.manager.debugf("player %s resumed on node %s", guildID, n.Identifier())
		n.manager.emit(PlayerEvent{Kind: EventPlayerResumed, Player: player})
	}
}

// PlayerState is the periodic state report for one guild's player.
type PlayerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int   `json:"ping"`
}

func (n *Node) handlePlayerUpdate(message []byte) {
	var payload struct {
		GuildID string      `json:"guildId"`
		State   PlayerState `json:"state"`
	}
	if err := json.Unmarshal(message, &payload); err != nil {
		n.protocolError("playerUpdate", err.Error())
		return
	}

	player := n.manager.Players().Get(payload.GuildID)
	if player == nil || player.Current() == nil {
		return
	}
	player.applyState(payload.State)
	n.manager.emit(PlayerUpdateEvent{Player: player, State: payload.State})
}

func (n *Node) handleEvent(message []byte) {
	var payload struct {
		Type        string          `json:"type"`
		GuildID     string          `json:"guildId"`
		Track       *Track          `json:"track"`
		Reason      string          `json:"reason"`
		ThresholdMs int64           `json:"thresholdMs"`
		Exception   *TrackException `json:"exception"`
		Code        int             `json:"code"`
		ByRemote    bool            `json:"byRemote"`
	}
	if err := json.Unmarshal(message, &payload); err != nil {
		n.protocolError("event", err.Error())
		return
	}

	player := n.manager.Players().Get(payload.GuildID)
	if player == nil {
		n.manager.debugf("node %s: dropped %s for unknown guild %s", n.Identifier(), payload.Type, payload.GuildID)
		return
	}

	switch payload.Type {
	case "TrackStartEvent":
		player.handleTrackStart()
	case "TrackEndEvent":
		player.handleTrackEnd(payload.Track, payload.Reason)
	case "TrackStuckEvent":
		player.handleTrackStuck(payload.ThresholdMs)
	case "TrackExceptionEvent":
		player.handleTrackException(payload.Exception)
	case "WebSocketClosedEvent":
		player.handleSocketClosed(payload.Code, payload.Reason, payload.ByRemote)
	default:
		n.protocolError("event", "unknown type "+payload.Type)
	}
}

func (n *Node) protocolError(op, reason string) {
	err := &ProtocolError{Op: op, Reason: reason}
	n.manager.debugf("node %s: %v", n.Identifier(), err)
}

func (n *Node) players() []*Player {
	return n.manager.Players().ByNode(n.UUID)
}

// Destroy force-closes the socket and marks the node terminal. No further
// reconnection is attempted and the persisted session id is discarded.
func (n *Node) Destroy() {
	n.mu.Lock()
	if n.state == NodeStateDestroyed {
		n.mu.Unlock()
		return
	}
	if n.reconnectTimer != nil {
		n.reconnectTimer.Stop()
		n.reconnectTimer = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	n.state = NodeStateDestroyed
	n.sessionID = ""
	n.mu.Unlock()

	_ = n.manager.store.Delete(n.sessionKey())
	n.manager.emit(NodeEvent{Kind: EventNodeDestroyed, Node: n})
}
