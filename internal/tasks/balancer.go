package tasks

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/desertthunder/merchtrack/internal/models"
)

// Chooser picks an index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	IntN(n int) int
}

// NewChooser returns a seeded PCG source. Seed 0 seeds from the clock.
func NewChooser(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}

// ReviewerLoad is one roster member's open item count.
type ReviewerLoad struct {
	Reviewer string `json:"reviewer"`
	Open     int    `json:"open"`
}

// Loads tracks open items per roster member. Reviewers not on the roster are not counted.
type Loads struct {
	roster []string
	counts map[string]int
}

// NewLoads counts rows whose reviewer is on the roster and whose resolution mark is empty.
// Every roster member starts at zero.
func NewLoads(roster []string, items []models.TrackedItem) *Loads {
	l := &Loads{roster: make([]string, 0, len(roster)), counts: make(map[string]int, len(roster))}
	for _, name := range roster {
		name = strings.TrimSpace(name)
		if _, dup := l.counts[name]; dup || name == "" {
			continue
		}
		l.roster = append(l.roster, name)
		l.counts[name] = 0
	}
	for _, it := range items {
		name := strings.TrimSpace(it.Reviewer)
		if _, ok := l.counts[name]; ok && it.Open() {
			l.counts[name]++
		}
	}
	return l
}

// Count returns the open items of a reviewer; zero for names off the roster.
func (l *Loads) Count(name string) int {
	return l.counts[strings.TrimSpace(name)]
}

// Assign adds one open item to name. Names off the roster are ignored.
func (l *Loads) Assign(name string) {
	name = strings.TrimSpace(name)
	if _, ok := l.counts[name]; ok {
		l.counts[name]++
	}
}

// Least returns the reviewers with the minimum load, in roster order.
func (l *Loads) Least() []string {
	if len(l.roster) == 0 {
		return nil
	}
	lo := l.counts[l.roster[0]]
	for _, name := range l.roster[1:] {
		lo = min(lo, l.counts[name])
	}
	var out []string
	for _, name := range l.roster {
		if l.counts[name] == lo {
			out = append(out, name)
		}
	}
	return out
}

// Spread returns max minus min load across the roster.
func (l *Loads) Spread() int {
	if len(l.roster) == 0 {
		return 0
	}
	lo, hi := l.counts[l.roster[0]], l.counts[l.roster[0]]
	for _, name := range l.roster[1:] {
		lo = min(lo, l.counts[name])
		hi = max(hi, l.counts[name])
	}
	return hi - lo
}

// List returns every roster member with their load, in roster order.
func (l *Loads) List() []ReviewerLoad {
	out := make([]ReviewerLoad, len(l.roster))
	for i, name := range l.roster {
		out[i] = ReviewerLoad{Reviewer: name, Open: l.counts[name]}
	}
	return out
}

// Balancer assigns new items to the least loaded reviewer, breaking ties with the injected [Chooser].
type Balancer struct {
	chooser Chooser
}

// NewBalancer wraps a chooser. A nil chooser is seeded from the clock.
func NewBalancer(chooser Chooser) *Balancer {
	if chooser == nil {
		chooser = NewChooser(0)
	}
	return &Balancer{chooser: chooser}
}

// Select picks a reviewer and records the assignment in loads. It returns "" only for an empty roster.
func (b *Balancer) Select(loads *Loads) string {
	candidates := loads.Least()
	if len(candidates) == 0 {
		return ""
	}
	pick := candidates[0]
	if len(candidates) > 1 {
		pick = candidates[b.chooser.IntN(len(candidates))]
	}
	loads.Assign(pick)
	return pick
}
