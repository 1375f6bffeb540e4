package lavalink

import (
	"sort"
	"sync"
)

// UsageMetric selects which usage figure ranks nodes.
type UsageMetric string

const (
	MetricPlayers UsageMetric = "players"
	MetricMemory  UsageMetric = "memory"
	MetricCPU     UsageMetric = "cpu"
)

// NodeRegistry holds the configured nodes and exposes usage-based selection,
// used both for fresh placement and for picking a migration target.
type NodeRegistry struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

func newNodeRegistry() *NodeRegistry {
	return &NodeRegistry{nodes: make(map[string]*Node)}
}

func (r *NodeRegistry) add(n *Node) {
	r.mu.Lock()
	r.nodes[n.UUID] = n
	r.mu.Unlock()
}

// Get looks a node up by UUID or configured identifier.
func (r *NodeRegistry) Get(id string) *Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.nodes[id]; ok {
		return n
	}
	for _, n := range r.nodes {
		if n.config.Identifier == id {
			return n
		}
	}
	return nil
}

// All returns every registered node.
func (r *NodeRegistry) All() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}

// Remove drops a node from the registry without destroying it.
func (r *NodeRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.nodes, id)
	r.mu.Unlock()
}

// SortByUsage ranks open nodes ascending by the chosen usage metric. Nodes
// without a stats snapshot sort last; destroyed or still-connecting nodes
// are never returned.
func (r *NodeRegistry) SortByUsage(metric UsageMetric) []*Node {
	candidates := make([]*Node, 0)
	for _, n := range r.All() {
		if n.State() == NodeStateOpen {
			candidates = append(candidates, n)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Stats(), candidates[j].Stats()
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return usageOf(si, metric) < usageOf(sj, metric)
	})
	return candidates
}

// Best returns the least-loaded open node, or nil when none is available.
func (r *NodeRegistry) Best(metric UsageMetric) *Node {
	sorted := r.SortByUsage(metric)
	if len(sorted) == 0 {
		return nil
	}
	return sorted[0]
}

func usageOf(stats *NodeStats, metric UsageMetric) float64 {
	switch metric {
	case MetricMemory:
		return float64(stats.Memory.Used)
	case MetricCPU:
		return stats.CPU.SystemLoad
	default:
		return float64(stats.Players)
	}
}
