package usecase

import (
	"context"
	"errors"

	"webtrace/internal/domain"
)

// RecorderService mediates all writes to a session timeline. Producers never
// hold the event sequence directly; they push through this service.
type RecorderService struct {
	timeline TimelineRepository
}

func NewRecorderService(timeline TimelineRepository) *RecorderService {
	return &RecorderService{timeline: timeline}
}

// RecordInteraction appends one interaction event. The second return is false
// when the event was a redundant delivery collapsed by the timeline.
func (s *RecorderService) RecordInteraction(ctx context.Context, ev *domain.InteractionEvent) (bool, error) {
	err := s.timeline.Append(ctx, ev)
	if errors.Is(err, ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordNetwork appends one network event.
func (s *RecorderService) RecordNetwork(ctx context.Context, ev *domain.NetworkEvent) error {
	return s.timeline.Append(ctx, ev)
}

// Finalize closes the session and returns the frozen, sorted aggregate.
func (s *RecorderService) Finalize(ctx context.Context) (domain.Session, error) {
	return s.timeline.Finalize(ctx)
}

// Snapshot returns a read-only copy of the session as currently recorded.
func (s *RecorderService) Snapshot(ctx context.Context) domain.Session {
	return s.timeline.Snapshot(ctx)
}

// Size reports the current event count.
func (s *RecorderService) Size() int {
	return s.timeline.Size()
}
