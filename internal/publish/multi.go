package publish

import (
	"context"
	"errors"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

// Multi fans out to several publishers. Every publisher is called even
// when an earlier one fails; the failures are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e gesture.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PublishJoints(ctx context.Context, joints map[string]skeleton.JointRecord) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishJoints(ctx, joints); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() {
	for _, p := range m {
		p.Close()
	}
}
