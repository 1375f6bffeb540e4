// Package main is a reference host for the lunalink client: a small
// Discord bot that forwards voice gateway traffic into the manager and
// exposes a few text commands for playback control.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	json "github.com/goccy/go-json"

	"github.com/lunalink/lunalink/pkg/config"
	"github.com/lunalink/lunalink/pkg/lavalink"
	"github.com/lunalink/lunalink/pkg/logger"
	"github.com/lunalink/lunalink/pkg/store"
	"github.com/lunalink/lunalink/pkg/telemetry"
	"github.com/lunalink/lunalink/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.Debug)
	defer log.Close()

	logger.System("Starting lunalink host...", "Main")

	// Discord session
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord session: %v", err), "Main")
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	st, err := openStore(cfg)
	if err != nil {
		logger.Error(fmt.Sprintf("Error opening %s store, falling back to memory: %v", cfg.StoreBackend, err), "Main")
		st = store.NewMemoryStore(cfg.StorePath)
	}

	manager := lavalink.NewManager(nodeConfigs(cfg), lavalink.Options{
		ClientID:               cfg.ClientID,
		Resume:                 true,
		AutoResume:             true,
		MovePlayersOnReconnect: true,
	}, func(guildID string, payload []byte) error {
		return sendVoicePayload(session, payload)
	}, st)

	registerEventLogging(manager)

	// MQTT telemetry mirror, only when a broker is configured
	if cfg.MQTTHost != "" {
		clientID := "lunalink"
		if !cfg.IsProd() {
			clientID = "lunalink_canary"
		}
		publisher := telemetry.Init(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, clientID)
		publisher.Attach(manager)
		defer publisher.Destroy()
	}

	// Status web server
	webServer := web.Init()
	web.SetupAPIRoutes(webServer, manager)
	webServer.StartAsync(cfg.Port)

	// Forward every raw gateway packet; the manager picks out the two
	// voice events and ignores the rest.
	session.AddHandler(func(s *discordgo.Session, e *discordgo.Event) {
		if e.Type != "VOICE_STATE_UPDATE" && e.Type != "VOICE_SERVER_UPDATE" {
			return
		}
		packet, err := json.Marshal(map[string]any{"t": e.Type, "d": e.RawData})
		if err != nil {
			return
		}
		if err := manager.PacketUpdate(packet); err != nil {
			logger.Warn(fmt.Sprintf("Voice packet rejected: %v", err), "Main")
		}
	})

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		if err := manager.Init(); err != nil {
			logger.Critical(fmt.Sprintf("Error initializing manager: %v", err), "Main")
			os.Exit(1)
		}
		logger.Success(fmt.Sprintf("Logged in as %s", r.User.Username), "Main")
	})

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handleCommand(s, m, manager)
	})

	if err := session.Open(); err != nil {
		logger.Critical(fmt.Sprintf("Error opening Discord session: %v", err), "Main")
		os.Exit(1)
	}
	defer session.Close()
	defer manager.Close()

	logger.Success("lunalink host started", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Shutting down lunalink host...", "Main")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return store.NewRedisStore(store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	case "mongo":
		return store.NewMongoStore(cfg.MongoDBURL, cfg.DBName)
	default:
		return store.NewMemoryStore(cfg.StorePath), nil
	}
}

func nodeConfigs(cfg *config.Config) []lavalink.NodeConfig {
	var configs []lavalink.NodeConfig
	for _, spec := range cfg.ParseNodes() {
		port, err := strconv.Atoi(spec.Port)
		if err != nil {
			logger.Warn(fmt.Sprintf("Skipping node %s: bad port %q", spec.Host, spec.Port), "Main")
			continue
		}
		configs = append(configs, lavalink.NodeConfig{
			Host:       spec.Host,
			Port:       port,
			Password:   spec.Password,
			Secure:     spec.Secure,
			Identifier: spec.Identifier,
		})
	}
	return configs
}

// sendVoicePayload unpacks the op-4 envelope and replays it through
// discordgo's gateway connection.
func sendVoicePayload(s *discordgo.Session, payload []byte) error {
	var envelope struct {
		D struct {
			GuildID   string  `json:"guild_id"`
			ChannelID *string `json:"channel_id"`
			SelfMute  bool    `json:"self_mute"`
			SelfDeaf  bool    `json:"self_deaf"`
		} `json:"d"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return err
	}
	channelID := ""
	if envelope.D.ChannelID != nil {
		channelID = *envelope.D.ChannelID
	}
	return s.ChannelVoiceJoinManual(envelope.D.GuildID, channelID, envelope.D.SelfMute, envelope.D.SelfDeaf)
}

func registerEventLogging(m *lavalink.Manager) {
	m.On(lavalink.EventNodeReady, func(e lavalink.Event) {
		ev := e.(lavalink.NodeEvent)
		logger.Success(fmt.Sprintf("Node %s ready", ev.Node.Identifier()), "Lavalink")
	})
	m.On(lavalink.EventNodeDisconnect, func(e lavalink.Event) {
		ev := e.(lavalink.NodeDisconnectEvent)
		logger.Warn(fmt.Sprintf("Node %s disconnected: %d %s", ev.Node.Identifier(), ev.Code, ev.Reason), "Lavalink")
	})
	m.On(lavalink.EventTrackStart, func(e lavalink.Event) {
		ev := e.(lavalink.TrackStartEvent)
		logger.Info(fmt.Sprintf("Playing %q in guild %s", ev.Track.Info.Title, ev.Player.GuildID()), "Lavalink")
	})
	m.On(lavalink.EventQueueEnd, func(e lavalink.Event) {
		ev := e.(lavalink.QueueEndEvent)
		logger.Info(fmt.Sprintf("Queue finished in guild %s", ev.Player.GuildID()), "Lavalink")
	})
}

func handleCommand(s *discordgo.Session, m *discordgo.MessageCreate, manager *lavalink.Manager) {
	if m.Author == nil || m.Author.Bot || !strings.HasPrefix(m.Content, "!") {
		return
	}

	fields := strings.Fields(m.Content)
	command := strings.TrimPrefix(fields[0], "!")
	args := strings.Join(fields[1:], " ")

	reply := func(text string) {
		_, _ = s.ChannelMessageSend(m.ChannelID, text)
	}

	switch command {
	case "play":
		if args == "" {
			reply("Usage: !play <query or url>")
			return
		}
		voiceChannel := userVoiceChannel(s, m.GuildID, m.Author.ID)
		if voiceChannel == "" {
			reply("Join a voice channel first.")
			return
		}

		player, err := manager.CreatePlayer(lavalink.PlayerConfig{
			GuildID:        m.GuildID,
			VoiceChannelID: voiceChannel,
			TextChannelID:  m.ChannelID,
		})
		if err != nil {
			reply("No audio node available: " + err.Error())
			return
		}

		result, err := manager.Search(lavalink.SearchOptions{Query: args, RequestedBy: m.Author.ID})
		if err != nil {
			reply("Search failed: " + err.Error())
			return
		}
		if len(result.Tracks) == 0 {
			reply("Nothing found.")
			return
		}

		if !player.Connect(lavalink.ConnectOptions{SetDeaf: true}) {
			reply("Could not join the voice channel.")
			return
		}

		if result.LoadType == "playlist" {
			player.Queue().Add(result.Tracks...)
			reply(fmt.Sprintf("Queued playlist %q (%d tracks)", result.PlaylistInfo.Name, len(result.Tracks)))
		} else {
			player.Queue().Add(result.Tracks[0])
			reply(fmt.Sprintf("Queued %q", result.Tracks[0].Info.Title))
		}

		if player.Current() == nil {
			if _, err := player.Play(lavalink.PlayOptions{}); err != nil {
				reply("Playback failed: " + err.Error())
			}
		}
	case "skip":
		if player := manager.GetPlayer(m.GuildID); player != nil {
			if _, err := player.Skip(); err != nil {
				reply("Skip failed: " + err.Error())
			}
		}
	case "pause":
		if player := manager.GetPlayer(m.GuildID); player != nil {
			_ = player.Pause()
		}
	case "resume":
		if player := manager.GetPlayer(m.GuildID); player != nil {
			_ = player.Resume()
		}
	case "stop":
		if player := manager.GetPlayer(m.GuildID); player != nil {
			_, _ = player.Stop(true)
			reply("Stopped.")
		}
	case "volume":
		player := manager.GetPlayer(m.GuildID)
		if player == nil || args == "" {
			return
		}
		volume, err := strconv.Atoi(args)
		if err != nil {
			reply("Usage: !volume <0-100>")
			return
		}
		if err := player.SetVolume(volume); err != nil {
			reply(err.Error())
		}
	}
}

func userVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}
