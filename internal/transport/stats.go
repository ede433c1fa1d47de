package transport

import (
	"sync"
	"time"
)

// PeerStats is the per-peer receive/send bookkeeping a Subscription or
// Publication keeps.
type PeerStats struct {
	Bytes    uint64
	Messages uint64
	LastSeen time.Time
}

// StatsBox is a mutex-guarded PeerStats — the transactional cell
// pattern used for every shared counter in this runtime.
type StatsBox struct {
	mu    sync.Mutex
	stats PeerStats
}

func (b *StatsBox) record(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Bytes += uint64(n)
	b.stats.Messages++
	b.stats.LastSeen = time.Now()
}

// Snapshot returns the current stats.
func (b *StatsBox) Snapshot() PeerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
