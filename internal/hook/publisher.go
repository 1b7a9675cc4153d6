package hook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

// Publisher runs the matching hooks for every published gesture. It
// satisfies publish.Publisher.
type Publisher struct {
	manager  *Manager
	executor *Executor
}

// NewPublisher creates a Publisher over discovered hooks.
func NewPublisher(manager *Manager, executor *Executor) *Publisher {
	return &Publisher{manager: manager, executor: executor}
}

// Publish runs each hook subscribed to the gesture in name order. Every
// hook runs even if an earlier one fails; the failures are joined.
func (p *Publisher) Publish(ctx context.Context, e gesture.Event) error {
	name := e.Gesture.Topic()
	req := Request{
		Gesture:   name,
		Score:     e.Score,
		Timestamp: e.Timestamp,
	}

	var errs []error
	for _, h := range p.manager.ForGesture(name) {
		req.Config = h.Manifest.Config
		resp, err := p.executor.Execute(ctx, h, &req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !resp.Success {
			errs = append(errs, fmt.Errorf("hook %s: %s", h.Manifest.Name, resp.Error))
			continue
		}
		log.Debug().Str("hook", h.Manifest.Name).Str("gesture", name).Msg("hook ran")
	}
	return errors.Join(errs...)
}

// PublishJoints is a no-op; hooks only receive gestures.
func (p *Publisher) PublishJoints(context.Context, map[string]skeleton.JointRecord) error {
	return nil
}

func (p *Publisher) Close() {}
