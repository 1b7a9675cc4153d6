package publish

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

// LogPublisher writes events to the log instead of a broker. It is used
// when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e gesture.Event) error {
	log.Info().Str("gesture", e.Gesture.Topic()).Float64("score", e.Score).Msg("gesture")
	return nil
}

func (LogPublisher) PublishJoints(_ context.Context, joints map[string]skeleton.JointRecord) error {
	log.Trace().Int("joints", len(joints)).Msg("skeleton")
	return nil
}

func (LogPublisher) Close() {}
