// Package telemetry mirrors manager events onto an MQTT broker so external
// dashboards and sibling services can observe playback without a direct
// process link. Topics follow lunalink/nodes/<id>/<event> and
// lunalink/players/<guildId>/<event>.
package telemetry

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/lunalink/lunalink/pkg/lavalink"
	"github.com/lunalink/lunalink/pkg/logger"
)

const topicRoot = "lunalink"

// Publisher owns the broker connection and the event mirror.
type Publisher struct {
	client   mqtt.Client
	clientID string
}

var (
	publisher *Publisher
	once      sync.Once
)

// Init initializes the global publisher
func Init(host, port, username, password, clientID string) *Publisher {
	once.Do(func() {
		publisher = NewPublisher(host, port, username, password, clientID)
	})
	return publisher
}

// Get returns the global publisher
func Get() *Publisher {
	return publisher
}

// NewPublisher creates a publisher and connects to the broker. Connection
// failures are logged, not fatal; paho retries in the background.
func NewPublisher(host, port, username, password, clientID string) *Publisher {
	p := &Publisher{clientID: clientID}

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Connected to MQTT broker as %s", clientID), "Telemetry")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("MQTT connection lost: %v", err), "Telemetry")
		})

	p.client = mqtt.NewClient(opts)

	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("MQTT connect error: %v", token.Error()), "Telemetry")
	}

	return p
}

// IsConnected returns true if connected to the broker
func (p *Publisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnected()
}

// Publish sends a JSON payload to a topic
func (p *Publisher) Publish(topic string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := p.client.Publish(topic, 0, false, jsonData)
	token.Wait()
	return token.Error()
}

// Subscribe subscribes to a topic with a message handler
func (p *Publisher) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := p.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Attach registers the event mirror on a manager. Debug events are not
// forwarded; they are too chatty for a broker.
func (p *Publisher) Attach(m *lavalink.Manager) {
	m.OnAny(func(e lavalink.Event) {
		if e.EventType() == lavalink.EventDebug {
			return
		}
		topic, payload := shape(e)
		if topic == "" {
			return
		}
		if err := p.Publish(topic, payload); err != nil {
			logger.Warn(fmt.Sprintf("Failed to publish %s: %v", topic, err), "Telemetry")
		}
	})
}

// Destroy closes the broker connection
func (p *Publisher) Destroy() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		logger.System("MQTT connection closed", "Telemetry")
	}
}

func nodeTopic(node *lavalink.Node, kind lavalink.EventType) string {
	return fmt.Sprintf("%s/nodes/%s/%s", topicRoot, node.Identifier(), kind)
}

func playerTopic(player *lavalink.Player, kind lavalink.EventType) string {
	return fmt.Sprintf("%s/players/%s/%s", topicRoot, player.GuildID(), kind)
}

func trackSummary(track *lavalink.Track) map[string]any {
	if track == nil {
		return nil
	}
	return map[string]any{
		"title":      track.Info.Title,
		"author":     track.Info.Author,
		"identifier": track.Info.Identifier,
		"length":     track.Info.Length,
		"uri":        track.Info.URI,
		"source":     track.Info.SourceName,
	}
}

// shape flattens an event into a topic plus a JSON-safe payload.
func shape(e lavalink.Event) (string, any) {
	switch ev := e.(type) {
	case lavalink.NodeEvent:
		return nodeTopic(ev.Node, ev.Kind), map[string]any{
			"node":  ev.Node.Identifier(),
			"state": ev.Node.State(),
		}
	case lavalink.NodeDisconnectEvent:
		return nodeTopic(ev.Node, e.EventType()), map[string]any{
			"node":   ev.Node.Identifier(),
			"code":   ev.Code,
			"reason": ev.Reason,
		}
	case lavalink.NodeErrorEvent:
		return nodeTopic(ev.Node, e.EventType()), map[string]any{
			"node":  ev.Node.Identifier(),
			"error": ev.Err.Error(),
		}
	case lavalink.TrackStartEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId": ev.Player.GuildID(),
			"track":   trackSummary(ev.Track),
		}
	case lavalink.TrackEndEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId": ev.Player.GuildID(),
			"track":   trackSummary(ev.Track),
			"reason":  ev.Reason,
		}
	case lavalink.TrackStuckEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId":     ev.Player.GuildID(),
			"track":       trackSummary(ev.Track),
			"thresholdMs": ev.ThresholdMs,
		}
	case lavalink.TrackExceptionEvent:
		payload := map[string]any{
			"guildId": ev.Player.GuildID(),
			"track":   trackSummary(ev.Track),
		}
		if ev.Exception != nil {
			payload["message"] = ev.Exception.Message
			payload["severity"] = ev.Exception.Severity
		}
		return playerTopic(ev.Player, e.EventType()), payload
	case lavalink.SocketClosedEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId":  ev.Player.GuildID(),
			"code":     ev.Code,
			"reason":   ev.Reason,
			"byRemote": ev.ByRemote,
		}
	case lavalink.QueueEndEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId": ev.Player.GuildID(),
		}
	case lavalink.PlayerUpdateEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId":   ev.Player.GuildID(),
			"position":  ev.State.Position,
			"connected": ev.State.Connected,
			"ping":      ev.State.Ping,
		}
	case lavalink.PlayerEvent:
		return playerTopic(ev.Player, ev.Kind), map[string]any{
			"guildId": ev.Player.GuildID(),
		}
	case lavalink.PlayerTrackEvent:
		return playerTopic(ev.Player, ev.Kind), map[string]any{
			"guildId": ev.Player.GuildID(),
			"track":   trackSummary(ev.Track),
		}
	case lavalink.PlayerMovedEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId":    ev.Player.GuildID(),
			"oldChannel": ev.OldChannel,
			"newChannel": ev.NewChannel,
		}
	case lavalink.PlayerSwitchedNodeEvent:
		return playerTopic(ev.Player, e.EventType()), map[string]any{
			"guildId": ev.Player.GuildID(),
			"oldNode": ev.OldNode,
			"newNode": ev.NewNode,
		}
	case lavalink.PlayerValueEvent:
		return playerTopic(ev.Player, ev.Kind), map[string]any{
			"guildId":  ev.Player.GuildID(),
			"oldValue": ev.OldValue,
			"newValue": ev.NewValue,
		}
	}
	return "", nil
}
