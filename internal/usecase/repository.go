package usecase

import (
	"context"
	"errors"

	"webtrace/internal/domain"
)

var (
	// ErrFinalized rejects writes once the session is closed.
	ErrFinalized = errors.New("session finalized")
	// ErrDuplicate marks a redundant delivery of an already recorded
	// interaction; it is a collapse, not a failure.
	ErrDuplicate = errors.New("duplicate interaction")
)

// TimelineRepository is the append-only event sink owning the session's
// ordered sequence.
type TimelineRepository interface {
	Append(ctx context.Context, ev domain.Event) error
	Finalize(ctx context.Context) (domain.Session, error)
	Snapshot(ctx context.Context) domain.Session
	Size() int
}

// ArchiveRepository persists finalized sessions for later analysis. Archival
// is best-effort; the exported JSON artifact remains the record of truth.
type ArchiveRepository interface {
	SaveSession(ctx context.Context, sess domain.Session) error
}
