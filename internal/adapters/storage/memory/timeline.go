// Package memory holds the in-memory session timeline. The events sequence is
// the only shared mutable state in the recorder; producers reach it through
// Append only.
package memory

import (
	"context"
	"sort"
	"sync"

	"webtrace/internal/domain"
	"webtrace/internal/usecase"
)

// Timeline owns one session's growing event set. Append is safe for
// concurrent producers; ordering across producers is established once, at
// Finalize, by a stable timestamp sort.
type Timeline struct {
	mu        sync.Mutex
	session   domain.Session
	seen      map[string]struct{}
	finalized bool
}

// NewTimeline starts a timeline for a session whose start URL and root domain
// are fixed for its lifetime.
func NewTimeline(sess domain.Session) *Timeline {
	if sess.StartTime == 0 {
		sess.StartTime = domain.NowMillis()
	}
	sess.Events = make([]domain.Event, 0, 256)
	return &Timeline{
		session: sess,
		seen:    make(map[string]struct{}, 256),
	}
}

// Append pushes one event. Interaction events arriving through more than one
// delivery channel are collapsed by content key so each logical occurrence is
// recorded exactly once.
func (t *Timeline) Append(ctx context.Context, ev domain.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return usecase.ErrFinalized
	}
	if ie, ok := ev.(*domain.InteractionEvent); ok {
		key := ie.DedupKey()
		if _, dup := t.seen[key]; dup {
			return usecase.ErrDuplicate
		}
		t.seen[key] = struct{}{}
	}
	t.session.Events = append(t.session.Events, ev)
	return nil
}

// Finalize closes the session: sets endTime, sorts events by timestamp
// (interaction before network on exact ties, arrival order otherwise), and
// freezes the sequence. Calling it again returns the frozen result unchanged.
func (t *Timeline) Finalize(ctx context.Context) (domain.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalized {
		return t.snapshotLocked(), nil
	}
	end := domain.NowMillis()
	t.session.EndTime = &end
	events := t.session.Events
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].OccurredAt(), events[j].OccurredAt()
		if ti != tj {
			return ti < tj
		}
		return typeRank(events[i]) < typeRank(events[j])
	})
	t.finalized = true
	return t.snapshotLocked(), nil
}

// Snapshot returns a copy of the session for read-only projection.
func (t *Timeline) Snapshot(ctx context.Context) domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Size returns the current event count.
func (t *Timeline) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.session.Events)
}

func (t *Timeline) snapshotLocked() domain.Session {
	out := t.session
	out.Events = make([]domain.Event, len(t.session.Events))
	copy(out.Events, t.session.Events)
	return out
}

// Interactions are the causal trigger in the target use case, so they sort
// ahead of network traffic sharing the same millisecond.
func typeRank(ev domain.Event) int {
	if ev.EventType() == domain.TypeInteraction {
		return 0
	}
	return 1
}
