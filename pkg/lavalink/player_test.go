package lavalink

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/lunalink/lunalink/pkg/store"
)

// recordedRequest is one call the fake node received.
type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeNode is an in-process stand-in for a remote audio node's REST API.
type fakeNode struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	f := &fakeNode{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(body),
		})
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeNode) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeNode) hostPort(t *testing.T) (string, int) {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	if err != nil {
		t.Fatalf("parsing fake node url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing fake node port: %v", err)
	}
	return u.Hostname(), port
}

// newRig builds a manager with one open node backed by the fake server.
func newRig(t *testing.T, f *fakeNode, options Options) *Manager {
	t.Helper()
	if options.ClientID == "" {
		options.ClientID = "client-1"
	}

	m := NewManager(nil, options, nil, store.NewMemoryStore(""))

	host, port := f.hostPort(t)
	node := newNode(m, NodeConfig{Host: host, Port: port, Identifier: "test-node"})
	node.state = NodeStateOpen
	node.sessionID = "session-test"
	m.nodes.add(node)
	return m
}

func createTestPlayer(t *testing.T, m *Manager) *Player {
	t.Helper()
	player, err := m.CreatePlayer(PlayerConfig{
		GuildID:        "guild-1",
		VoiceChannelID: "voice-1",
		TextChannelID:  "text-1",
	})
	if err != nil {
		t.Fatalf("CreatePlayer() returned error: %v", err)
	}
	return player
}

func collectEvents(m *Manager, kinds ...EventType) *[]Event {
	events := &[]Event{}
	for _, kind := range kinds {
		m.On(kind, func(e Event) {
			*events = append(*events, e)
		})
	}
	return events
}

func TestCreatePlayerDefaults(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})

	player := createTestPlayer(t, m)

	if player.Volume() != 80 {
		t.Errorf("Volume() = %v, want default 80", player.Volume())
	}
	if player.Loop() != LoopOff {
		t.Errorf("Loop() = %v, want off", player.Loop())
	}

	// Creating again returns the same player.
	again, err := m.CreatePlayer(PlayerConfig{GuildID: "guild-1"})
	if err != nil {
		t.Fatalf("CreatePlayer() returned error: %v", err)
	}
	if again != player {
		t.Error("CreatePlayer() for an existing guild should return the existing player")
	}
}

func TestCreatePlayerRequiresGuildAndNode(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})

	if _, err := m.CreatePlayer(PlayerConfig{}); err == nil {
		t.Error("CreatePlayer() without a guild id should fail")
	}

	// No open node left.
	empty := NewManager(nil, Options{ClientID: "c"}, nil, store.NewMemoryStore(""))
	if _, err := empty.CreatePlayer(PlayerConfig{GuildID: "guild-2"}); err == nil {
		t.Error("CreatePlayer() without an open node should fail")
	}
}

func TestPlayFromQueue(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	events := collectEvents(m, EventPlayerTriggeredPlay)

	track := testTrack(t, "first")
	player.Queue().Add(track)

	ok, err := player.Play(PlayOptions{})
	if err != nil {
		t.Fatalf("Play() returned error: %v", err)
	}
	if !ok {
		t.Fatal("Play() = false, want true")
	}

	if player.Current() != track {
		t.Error("Current() should be the dequeued track")
	}
	if !player.Playing() {
		t.Error("Playing() should be true after Play")
	}
	if player.Queue().Size() != 0 {
		t.Error("queue should be drained")
	}

	requests := f.Requests()
	if len(requests) != 1 {
		t.Fatalf("fake node received %d requests, want 1", len(requests))
	}
	if requests[0].Method != http.MethodPatch {
		t.Errorf("method = %v, want PATCH", requests[0].Method)
	}
	wantPath := "/v4/sessions/session-test/players/guild-1"
	if requests[0].Path != wantPath {
		t.Errorf("path = %v, want %v", requests[0].Path, wantPath)
	}
	if !strings.Contains(requests[0].Body, track.Encoded) {
		t.Error("update body should carry the encoded track")
	}

	if len(*events) != 1 {
		t.Errorf("playerTriggeredPlay events = %d, want 1", len(*events))
	}
}

func TestPlayEmptyQueueIsNotAnError(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	ok, err := player.Play(PlayOptions{})
	if err != nil {
		t.Fatalf("Play() returned error: %v", err)
	}
	if ok {
		t.Error("Play() on an empty queue should report false")
	}
	if len(f.Requests()) != 0 {
		t.Error("no remote call should be made for an empty queue")
	}
}

func TestPlayRejectsMalformedEncoded(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	_, err := player.Play(PlayOptions{Encoded: "%%%garbage%%%"})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("error type = %T, want *DecodeError", err)
	}
}

func TestSetVolumeBounds(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	for _, volume := range []int{-1, 101, 1000} {
		err := player.SetVolume(volume)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("SetVolume(%d) error type = %T, want *ValidationError", volume, err)
		}
	}
	if len(f.Requests()) != 0 {
		t.Error("rejected volumes must not reach the node")
	}

	if err := player.SetVolume(50); err != nil {
		t.Fatalf("SetVolume(50) returned error: %v", err)
	}
	if player.Volume() != 50 {
		t.Errorf("Volume() = %v, want 50", player.Volume())
	}
	if len(f.Requests()) != 1 {
		t.Errorf("fake node received %d requests, want 1", len(f.Requests()))
	}
}

func TestSetLoopValidation(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	if err := player.SetLoop("bogus"); err == nil {
		t.Error("SetLoop(bogus) should fail")
	}
	if err := player.SetLoop(LoopQueue); err != nil {
		t.Fatalf("SetLoop(queue) returned error: %v", err)
	}
	if player.Loop() != LoopQueue {
		t.Errorf("Loop() = %v, want queue", player.Loop())
	}
}

func TestSeekValidation(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	if err := player.Seek(1000); err == nil {
		t.Error("Seek() without a loaded track should fail")
	}

	track := testTrack(t, "seekable")
	player.setCurrent(track, 0)

	if err := player.Seek(track.Info.Length + 1); err == nil {
		t.Error("Seek() past the track duration should fail")
	}
	if err := player.Seek(-1); err == nil {
		t.Error("Seek() to a negative position should fail")
	}

	if err := player.Seek(5000); err != nil {
		t.Fatalf("Seek(5000) returned error: %v", err)
	}
	if player.Position() != 5000 {
		t.Errorf("Position() = %v, want 5000", player.Position())
	}

	info := sampleInfo()
	info.IsStream = true
	info.IsSeekable = false
	stream, err := NewTrack(info, nil)
	if err != nil {
		t.Fatalf("NewTrack() returned error: %v", err)
	}
	player.setCurrent(stream, 0)
	if err := player.Seek(0); err == nil {
		t.Error("Seek() on a stream should fail")
	}
}

func TestSkipToPosition(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	a := testTrack(t, "a")
	b := testTrack(t, "b")
	player.Queue().Add(a, b)

	ok, err := player.Skip(1)
	if err != nil {
		t.Fatalf("Skip(1) returned error: %v", err)
	}
	if !ok {
		t.Fatal("Skip(1) = false, want true")
	}
	if player.Current() != b {
		t.Error("Skip(1) should promote the second queue entry")
	}
	if player.Queue().Size() != 1 || player.Queue().Get(0) != a {
		t.Error("remaining queue should still hold the first entry")
	}
}

func TestSkipToOutOfRange(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	player.Queue().Add(testTrack(t, "only"))

	for _, position := range []int{-1, 1, 5} {
		_, err := player.Skip(position)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("Skip(%d) error type = %T, want *ValidationError", position, err)
		}
	}
}

func TestSkipWithoutQueueOrAutoplay(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	ok, err := player.Skip()
	if err != nil {
		t.Fatalf("Skip() returned error: %v", err)
	}
	if ok {
		t.Error("Skip() with an empty queue and no autoplay should report false")
	}
	if len(f.Requests()) != 0 {
		t.Error("nothing should reach the node")
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	if err := player.Pause(); err != nil {
		t.Fatalf("Pause() returned error: %v", err)
	}
	if err := player.Pause(); err != nil {
		t.Fatalf("second Pause() returned error: %v", err)
	}
	if got := len(f.Requests()); got != 1 {
		t.Errorf("fake node received %d requests after double Pause, want 1", got)
	}
	if !player.Paused() {
		t.Error("Paused() should be true")
	}

	if err := player.Resume(); err != nil {
		t.Fatalf("Resume() returned error: %v", err)
	}
	if err := player.Resume(); err != nil {
		t.Fatalf("second Resume() returned error: %v", err)
	}
	if got := len(f.Requests()); got != 2 {
		t.Errorf("fake node received %d requests after double Resume, want 2", got)
	}
	if player.Paused() {
		t.Error("Paused() should be false after Resume")
	}
}

func TestStopClearsQueue(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	player.Queue().Add(testTrack(t, "next"))
	player.setCurrent(testTrack(t, "now"), 0)

	ok, err := player.Stop(false)
	if err != nil {
		t.Fatalf("Stop() returned error: %v", err)
	}
	if !ok {
		t.Fatal("Stop() = false, want true")
	}
	if player.Current() != nil {
		t.Error("Stop() should clear the current track")
	}
	if player.Queue().Size() != 0 {
		t.Error("Stop() should clear the queue")
	}
	if player.Destroyed() {
		t.Error("Stop(false) must not destroy the player")
	}
}

func TestStopWithDestroy(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	player.setCurrent(testTrack(t, "now"), 0)

	ok, err := player.Stop(true)
	if err != nil {
		t.Fatalf("Stop(true) returned error: %v", err)
	}
	if !ok {
		t.Fatal("Stop(true) = false, want true")
	}
	if !player.Destroyed() {
		t.Error("Stop(true) should destroy the player")
	}
	if m.GetPlayer("guild-1") != nil {
		t.Error("destroyed player should be removed from the registry")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	events := collectEvents(m, EventPlayerDestroyed)

	if err := player.Destroy(); err != nil {
		t.Fatalf("Destroy() returned error: %v", err)
	}
	if err := player.Destroy(); err != nil {
		t.Fatalf("second Destroy() returned error: %v", err)
	}
	if len(*events) != 1 {
		t.Errorf("playerDestroyed events = %d, want 1", len(*events))
	}
	if m.GetPlayer("guild-1") != nil {
		t.Error("player should be removed from the registry")
	}
}

func TestTrackEndAdvancesQueue(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	a := testTrack(t, "a")
	b := testTrack(t, "b")
	player.setCurrent(a, 0)
	player.Queue().Add(b)

	player.handleTrackEnd(a, "finished")

	if player.Current() != b {
		t.Error("finished track should advance to the next queue entry")
	}
	previous := player.Previous()
	if len(previous) != 1 || previous[0] != a {
		t.Error("finished track should enter the history")
	}
}

func TestTrackEndLoopTrackResubmits(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	a := testTrack(t, "a")
	player.setCurrent(a, 0)
	if err := player.SetLoop(LoopTrack); err != nil {
		t.Fatalf("SetLoop() returned error: %v", err)
	}

	player.handleTrackEnd(a, "finished")

	if player.Current() != a {
		t.Error("loop track should keep the current track")
	}
	requests := f.Requests()
	if len(requests) != 1 {
		t.Fatalf("fake node received %d requests, want 1", len(requests))
	}
	if !strings.Contains(requests[0].Body, a.Encoded) {
		t.Error("loop track should re-submit the same encoded handle")
	}
}

func TestTrackEndLoopQueueReappends(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	a := testTrack(t, "a")
	b := testTrack(t, "b")
	player.setCurrent(a, 0)
	player.Queue().Add(b)
	if err := player.SetLoop(LoopQueue); err != nil {
		t.Fatalf("SetLoop() returned error: %v", err)
	}

	player.handleTrackEnd(a, "finished")

	if player.Current() != b {
		t.Error("loop queue should advance to the next entry")
	}
	all := player.Queue().All()
	if len(all) != 1 || all[0].Encoded != a.Encoded {
		t.Error("the finished track should be re-appended to the tail")
	}
}

func TestTrackEndLoadFailedIgnoresLoop(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	a := testTrack(t, "a")
	b := testTrack(t, "b")
	player.setCurrent(a, 0)
	player.Queue().Add(b)
	if err := player.SetLoop(LoopTrack); err != nil {
		t.Fatalf("SetLoop() returned error: %v", err)
	}

	player.handleTrackEnd(a, "loadFailed")

	if player.Current() != b {
		t.Error("loadFailed should skip loop mode and advance the queue")
	}
}

func TestTrackEndReplacedIsNoop(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	events := collectEvents(m, EventQueueEnd)

	a := testTrack(t, "a")
	player.setCurrent(a, 0)

	player.handleTrackEnd(a, "replaced")

	if player.Current() != a {
		t.Error("replaced must not clear the current track")
	}
	if len(f.Requests()) != 0 {
		t.Error("replaced must not issue remote calls")
	}
	if len(*events) != 0 {
		t.Error("replaced must not end the queue")
	}
}

func TestTrackEndQueueExhausted(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	events := collectEvents(m, EventQueueEnd)

	a := testTrack(t, "a")
	player.setCurrent(a, 0)

	player.handleTrackEnd(a, "finished")

	if player.Current() != nil {
		t.Error("exhausted queue should clear the current track")
	}
	if len(*events) != 1 {
		t.Errorf("queueEnd events = %d, want 1", len(*events))
	}
	if player.Destroyed() {
		t.Error("plain queue end must not destroy the player")
	}
}

func TestTrackEndAutoLeaveDestroys(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	leaves := collectEvents(m, EventAutoLeaved)
	ends := collectEvents(m, EventQueueEnd)

	a := testTrack(t, "a")
	player.setCurrent(a, 0)
	player.SetAutoLeave(true)

	player.handleTrackEnd(a, "finished")

	if !player.Destroyed() {
		t.Error("auto-leave should destroy the player")
	}
	if len(*leaves) != 1 {
		t.Errorf("autoLeaved events = %d, want 1", len(*leaves))
	}
	if len(*ends) != 1 {
		t.Errorf("queueEnd events = %d, want 1", len(*ends))
	}
}

func TestTrackEndStoppedSkipsAutoplay(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	events := collectEvents(m, EventQueueEnd)

	a := testTrack(t, "a") // sampleInfo is a youtube track
	player.setCurrent(a, 0)
	player.SetAutoPlay(true)

	player.handleTrackEnd(a, "stopped")

	if len(*events) != 1 {
		t.Error("stopped should bypass autoplay and end the queue")
	}
}

func TestPreviousHistoryModes(t *testing.T) {
	f := newFakeNode(t)

	single := newRig(t, f, Options{})
	player := createTestPlayer(t, single)
	a := testTrack(t, "a")
	b := testTrack(t, "b")
	player.setCurrent(a, 0)
	player.handleTrackEnd(a, "finished")
	player.setCurrent(b, 0)
	player.handleTrackEnd(b, "finished")
	if previous := player.Previous(); len(previous) != 1 || previous[0] != b {
		t.Error("default history should keep only the latest track")
	}

	array := newRig(t, f, Options{PreviousInArray: true})
	player2, err := array.CreatePlayer(PlayerConfig{GuildID: "guild-2"})
	if err != nil {
		t.Fatalf("CreatePlayer() returned error: %v", err)
	}
	player2.setCurrent(a, 0)
	player2.handleTrackEnd(a, "finished")
	player2.setCurrent(b, 0)
	player2.handleTrackEnd(b, "finished")
	if previous := player2.Previous(); len(previous) != 2 {
		t.Errorf("array history length = %d, want 2", len(previous))
	}
}

func TestTransferNodeRestartsOnNewNode(t *testing.T) {
	f := newFakeNode(t)
	f2 := newFakeNode(t)
	m := newRig(t, f, Options{})

	host, port := f2.hostPort(t)
	second := newNode(m, NodeConfig{Host: host, Port: port, Identifier: "second"})
	second.state = NodeStateOpen
	second.sessionID = "session-second"
	m.nodes.add(second)

	player := createTestPlayer(t, m)
	// Pin the player to the first node regardless of map ordering.
	first := m.Nodes().Get("test-node")
	player.mu.Lock()
	player.node = first
	player.mu.Unlock()

	player.setCurrent(testTrack(t, "a"), 1234)

	ok, err := player.TransferNode(second)
	if err != nil {
		t.Fatalf("TransferNode() returned error: %v", err)
	}
	if !ok {
		t.Fatal("TransferNode() = false, want true")
	}
	if player.Node() != second {
		t.Error("player should now live on the second node")
	}

	var sawPlay bool
	for _, request := range f2.Requests() {
		if strings.Contains(request.Path, "session-second") && strings.Contains(request.Body, "encoded") {
			sawPlay = true
		}
	}
	if !sawPlay {
		t.Error("the restart should submit the current track to the new node")
	}
}

func TestTransferNodeRejectsDestroyedTarget(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)

	dead := newNode(m, NodeConfig{Host: "localhost", Port: 9999, Identifier: "dead"})
	dead.state = NodeStateDestroyed

	if _, err := player.TransferNode(dead); err == nil {
		t.Error("TransferNode() to a destroyed node should fail")
	}
	if _, err := player.TransferNode(nil); err == nil {
		t.Error("TransferNode(nil) should fail")
	}
}

func TestStopWhilePaused(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	player.setCurrent(testTrack(t, "now"), 0)

	if err := player.Pause(); err != nil {
		t.Fatalf("Pause() returned error: %v", err)
	}

	ok, err := player.Stop(true)
	if err != nil {
		t.Fatalf("Stop(true) returned error: %v", err)
	}
	if !ok {
		t.Fatal("Stop(true) on a paused player = false, want true")
	}
	if !player.Destroyed() {
		t.Error("Stop(true) should tear down a paused player")
	}

	var sawDelete bool
	for _, r := range f.Requests() {
		if r.Method == http.MethodDelete {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Error("teardown should delete the remote player")
	}
}

func TestSkipEmptyQueueStops(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	player.setCurrent(testTrack(t, "now"), 0)

	ok, err := player.Skip()
	if err != nil {
		t.Fatalf("Skip() returned error: %v", err)
	}
	if !ok {
		t.Fatal("Skip() past the last track = false, want true")
	}
	if player.Current() != nil {
		t.Error("skipping past the last track should unload it")
	}
	if got := len(f.Requests()); got != 1 {
		t.Errorf("fake node received %d requests, want 1 unload", got)
	}
	if !strings.Contains(f.Requests()[0].Body, `"encoded":null`) {
		t.Errorf("unload body = %s, want a null track", f.Requests()[0].Body)
	}
}

func TestSkipEmptyQueueAutoplays(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})
	player := createTestPlayer(t, m)
	player.SetAutoPlay(true)
	player.setCurrent(testTrack(t, "now"), 0)

	shaped := newShapedNode(t, m, "search", []*Track{testTrack(t, "follow-up")})
	defer shaped.demote()

	ok, err := player.Skip()
	if err != nil {
		t.Fatalf("Skip() returned error: %v", err)
	}
	if !ok {
		t.Fatal("Skip() with autoplay = false, want true")
	}
	current := player.Current()
	if current == nil || current.Info.Title != "follow-up" {
		t.Fatalf("current = %v, want the recommended track", current)
	}
}

func TestCreatePlayerExplicitZeroVolume(t *testing.T) {
	f := newFakeNode(t)
	m := newRig(t, f, Options{})

	muted := 0
	player, err := m.CreatePlayer(PlayerConfig{
		GuildID:        "guild-muted",
		VoiceChannelID: "voice-1",
		Volume:         &muted,
	})
	if err != nil {
		t.Fatalf("CreatePlayer returned error: %v", err)
	}
	if player.Volume() != 0 {
		t.Errorf("Volume() = %d, want 0", player.Volume())
	}

	loud := 101
	if _, err := m.CreatePlayer(PlayerConfig{
		GuildID:        "guild-loud",
		VoiceChannelID: "voice-1",
		Volume:         &loud,
	}); err == nil {
		t.Error("CreatePlayer with volume 101 should fail")
	}
}
