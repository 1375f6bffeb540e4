package lavalink

import "testing"

func statsWithPlayers(players int) *NodeStats {
	return &NodeStats{Players: players}
}

func openNode(m *Manager, identifier string, port int, stats *NodeStats) *Node {
	n := newNode(m, NodeConfig{Host: "localhost", Port: port, Identifier: identifier})
	n.state = NodeStateOpen
	n.stats = stats
	return n
}

func testManager() *Manager {
	return NewManager(nil, Options{ClientID: "client-1"}, nil, nil)
}

func TestRegistryGetByIdentifierAndUUID(t *testing.T) {
	m := testManager()
	r := newNodeRegistry()
	n := openNode(m, "primary", 2333, nil)
	r.add(n)

	if got := r.Get(n.UUID); got != n {
		t.Error("Get() by UUID should find the node")
	}
	if got := r.Get("primary"); got != n {
		t.Error("Get() by identifier should find the node")
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
}

func TestSortByUsageOrdersAscending(t *testing.T) {
	m := testManager()
	r := newNodeRegistry()

	heavy := openNode(m, "heavy", 2333, statsWithPlayers(5))
	light := openNode(m, "light", 2334, statsWithPlayers(1))
	medium := openNode(m, "medium", 2335, statsWithPlayers(3))
	r.add(heavy)
	r.add(light)
	r.add(medium)

	sorted := r.SortByUsage(MetricPlayers)
	if len(sorted) != 3 {
		t.Fatalf("SortByUsage() len = %v, want 3", len(sorted))
	}

	want := []string{"light", "medium", "heavy"}
	for i, identifier := range want {
		if sorted[i].Identifier() != identifier {
			t.Errorf("sorted[%d] = %v, want %v", i, sorted[i].Identifier(), identifier)
		}
	}
}

func TestSortByUsageSkipsUnavailableNodes(t *testing.T) {
	m := testManager()
	r := newNodeRegistry()

	open := openNode(m, "open", 2333, statsWithPlayers(2))
	closed := openNode(m, "closed", 2334, statsWithPlayers(0))
	closed.state = NodeStateClosed
	destroyed := openNode(m, "destroyed", 2335, statsWithPlayers(0))
	destroyed.state = NodeStateDestroyed
	r.add(open)
	r.add(closed)
	r.add(destroyed)

	sorted := r.SortByUsage(MetricPlayers)
	if len(sorted) != 1 || sorted[0] != open {
		t.Errorf("SortByUsage() should only return open nodes, got %d", len(sorted))
	}
}

func TestSortByUsageNilStatsSortLast(t *testing.T) {
	m := testManager()
	r := newNodeRegistry()

	unknown := openNode(m, "unknown", 2333, nil)
	known := openNode(m, "known", 2334, statsWithPlayers(100))
	r.add(unknown)
	r.add(known)

	sorted := r.SortByUsage(MetricPlayers)
	if len(sorted) != 2 {
		t.Fatalf("SortByUsage() len = %v, want 2", len(sorted))
	}
	if sorted[0] != known {
		t.Error("node without stats should sort after nodes with stats")
	}
}

func TestBest(t *testing.T) {
	m := testManager()
	r := newNodeRegistry()

	if r.Best(MetricPlayers) != nil {
		t.Error("Best() on empty registry should return nil")
	}

	light := openNode(m, "light", 2333, statsWithPlayers(1))
	heavy := openNode(m, "heavy", 2334, statsWithPlayers(9))
	r.add(light)
	r.add(heavy)

	if got := r.Best(MetricPlayers); got != light {
		t.Errorf("Best() = %v, want light", got.Identifier())
	}
}

func TestUsageOfMetrics(t *testing.T) {
	stats := &NodeStats{Players: 4}
	stats.Memory.Used = 2048
	stats.CPU.SystemLoad = 0.75

	if got := usageOf(stats, MetricPlayers); got != 4 {
		t.Errorf("usageOf(players) = %v, want 4", got)
	}
	if got := usageOf(stats, MetricMemory); got != 2048 {
		t.Errorf("usageOf(memory) = %v, want 2048", got)
	}
	if got := usageOf(stats, MetricCPU); got != 0.75 {
		t.Errorf("usageOf(cpu) = %v, want 0.75", got)
	}
}
