package lavalink

import "sync"

// EventType identifies one of the closed set of domain events the manager
// emits to the host application.
type EventType string

const (
	// Node connectivity.
	EventNodeCreate      EventType = "nodeCreate"
	EventNodeConnected   EventType = "nodeConnected"
	EventNodeReady       EventType = "nodeReady"
	EventNodeReconnect   EventType = "nodeReconnect"
	EventNodeDisconnect  EventType = "nodeDisconnect"
	EventNodeError       EventType = "nodeError"
	EventNodeDestroyed   EventType = "nodeDestroyed"
	EventNodeAutoResumed EventType = "nodeAutoResumed"

	// Playback.
	EventTrackStart     EventType = "trackStart"
	EventTrackEnd       EventType = "trackEnd"
	EventTrackStuck     EventType = "trackStuck"
	EventTrackException EventType = "trackException"
	EventQueueEnd       EventType = "queueEnd"
	EventPlayerUpdate   EventType = "playerUpdate"
	EventSocketClosed   EventType = "socketClosed"

	// Player lifecycle and triggered commands.
	EventPlayerCreated       EventType = "playerCreated"
	EventPlayerDestroyed     EventType = "playerDestroyed"
	EventPlayerMoved         EventType = "playerMoved"
	EventPlayerSwitchedNode  EventType = "playerSwitchedNode"
	EventPlayerResumed       EventType = "playerResumed"
	EventAutoLeaved          EventType = "autoLeaved"
	EventPlayerTriggeredPlay EventType = "playerTriggeredPlay"
	EventPlayerTriggeredStop EventType = "playerTriggeredStop"
	EventPlayerTriggeredSkip EventType = "playerTriggeredSkip"
	EventPlayerTriggeredSeek EventType = "playerTriggeredSeek"
	EventPlayerPaused        EventType = "playerPaused"
	EventPlayerResumedPlay   EventType = "playerResumedPlay"
	EventPlayerVolumeChanged EventType = "playerVolumeChanged"
	EventPlayerLoopChanged   EventType = "playerLoopChanged"

	// Free-text diagnostics. Never rely on it for control flow.
	EventDebug EventType = "debug"
)

// Event is implemented by every payload the bus carries. Handlers type-assert
// to the concrete payload for the kind they subscribed to.
type Event interface {
	EventType() EventType
}

// NodeEvent is the payload for nodeCreate, nodeConnected, nodeReady,
// nodeReconnect, nodeDestroyed and nodeAutoResumed.
type NodeEvent struct {
	Kind EventType
	Node *Node
}

func (e NodeEvent) EventType() EventType { return e.Kind }

// NodeDisconnectEvent carries the transport-level close code and reason.
type NodeDisconnectEvent struct {
	Node   *Node
	Code   int
	Reason string
}

func (NodeDisconnectEvent) EventType() EventType { return EventNodeDisconnect }

// NodeErrorEvent is a non-fatal transport diagnostic.
type NodeErrorEvent struct {
	Node *Node
	Err  error
}

func (NodeErrorEvent) EventType() EventType { return EventNodeError }

// TrackStartEvent fires when the remote node starts a track.
type TrackStartEvent struct {
	Player *Player
	Track  *Track
}

func (TrackStartEvent) EventType() EventType { return EventTrackStart }

// TrackEndEvent fires when the remote node finishes, fails or replaces a
// track. Reason is one of finished, loadFailed, stopped, replaced, cleanup.
type TrackEndEvent struct {
	Player *Player
	Track  *Track
	Reason string
}

func (TrackEndEvent) EventType() EventType { return EventTrackEnd }

// TrackStuckEvent fires when playback stalls past the node's threshold.
type TrackStuckEvent struct {
	Player      *Player
	Track       *Track
	ThresholdMs int64
}

func (TrackStuckEvent) EventType() EventType { return EventTrackStuck }

// TrackExceptionEvent carries the remote playback exception.
type TrackExceptionEvent struct {
	Player    *Player
	Track     *Track
	Exception *TrackException
}

func (TrackExceptionEvent) EventType() EventType { return EventTrackException }

// SocketClosedEvent reports a voice-gateway-level closure for one guild.
type SocketClosedEvent struct {
	Player   *Player
	Code     int
	Reason   string
	ByRemote bool
}

func (SocketClosedEvent) EventType() EventType { return EventSocketClosed }

// QueueEndEvent fires when a player runs out of tracks.
type QueueEndEvent struct {
	Player *Player
}

func (QueueEndEvent) EventType() EventType { return EventQueueEnd }

// PlayerUpdateEvent mirrors the node's periodic player state report.
type PlayerUpdateEvent struct {
	Player *Player
	State  PlayerState
}

func (PlayerUpdateEvent) EventType() EventType { return EventPlayerUpdate }

// PlayerEvent is the payload for player lifecycle and triggered-command
// kinds that carry no extra data beyond the player itself.
type PlayerEvent struct {
	Kind   EventType
	Player *Player
}

func (e PlayerEvent) EventType() EventType { return e.Kind }

// PlayerTrackEvent is the payload for triggered-play and similar kinds
// that reference one track.
type PlayerTrackEvent struct {
	Kind   EventType
	Player *Player
	Track  *Track
}

func (e PlayerTrackEvent) EventType() EventType { return e.Kind }

// PlayerMovedEvent fires when the bot is moved between voice channels.
type PlayerMovedEvent struct {
	Player     *Player
	OldChannel string
	NewChannel string
}

func (PlayerMovedEvent) EventType() EventType { return EventPlayerMoved }

// PlayerSwitchedNodeEvent fires after a player migrates between nodes.
type PlayerSwitchedNodeEvent struct {
	Player  *Player
	OldNode string
	NewNode string
}

func (PlayerSwitchedNodeEvent) EventType() EventType { return EventPlayerSwitchedNode }

// PlayerValueEvent is the payload for volume/loop/seek change kinds.
type PlayerValueEvent struct {
	Kind     EventType
	Player   *Player
	OldValue any
	NewValue any
}

func (e PlayerValueEvent) EventType() EventType { return e.Kind }

// DebugEvent carries free-text operational detail.
type DebugEvent struct {
	Message string
}

func (DebugEvent) EventType() EventType { return EventDebug }

// Handler consumes one event. Handlers run synchronously on the emitting
// goroutine; a node's events therefore arrive in wire order.
type Handler func(e Event)

// EventBus is a typed publish/subscribe fan-out keyed by event kind.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	anyAll   []Handler
}

func newEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]Handler)}
}

// On registers a handler for one event kind.
func (b *EventBus) On(kind EventType, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], h)
	b.mu.Unlock()
}

// OnAny registers a handler that receives every event regardless of kind,
// after the kind-specific handlers.
func (b *EventBus) OnAny(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.anyAll = append(b.anyAll, h)
	b.mu.Unlock()
}

func (b *EventBus) emit(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.EventType()]
	anyAll := b.anyAll
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
	for _, h := range anyAll {
		h(e)
	}
}
