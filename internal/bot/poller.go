package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cratewatch/cratewatch/internal/common/logger"
	"github.com/cratewatch/cratewatch/internal/watch"
)

// Poller periodically re-checks every watched crate against the
// registry and announces version changes into the room.
type Poller struct {
	registry Registry
	sender   Sender
	list     *watch.List
	room     string
	interval time.Duration
}

// NewPoller creates a poller over the shared watch list.
func NewPoller(registry Registry, sender Sender, list *watch.List, room string, interval time.Duration) *Poller {
	return &Poller{
		registry: registry,
		sender:   sender,
		list:     list,
		room:     room,
		interval: interval,
	}
}

// Run executes poll cycles on the configured interval until ctx is
// cancelled. The first cycle runs one full interval after start.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.checkOnce()
		}
	}
}

// checkOnce runs a single poll cycle. The watch list is snapshotted
// under a brief lock; registry queries happen with no lock held, and
// each update is applied as a compare-and-swap so entries removed or
// replaced mid-cycle are left alone. Registry failures skip the entry
// and are logged rather than aborting the cycle.
func (p *Poller) checkOnce() {
	entries := p.list.Snapshot()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var lines []string
	for _, entry := range entries {
		latest, err := p.registry.LatestVersion(entry.Name)
		if err != nil {
			logger.Warn("version check failed for %s: %v", entry.Name, err)
			continue
		}

		if latest == entry.Version {
			continue
		}

		if p.list.CompareAndSwap(entry.Name, entry.Version, latest) {
			lines = append(lines, fmt.Sprintf("`%s` updated from version `%s` to `%s`!", entry.Name, entry.Version, latest))
		}
	}

	if len(lines) == 0 {
		return
	}

	if err := p.sender.SendText(p.room, strings.Join(lines, "\n")); err != nil {
		logger.Warn("failed to send update notification: %v", err)
	}
}
