package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

type countingPublisher struct {
	events int
	joints int
	closed bool
	err    error
}

func (p *countingPublisher) Publish(context.Context, gesture.Event) error {
	p.events++
	return p.err
}

func (p *countingPublisher) PublishJoints(context.Context, map[string]skeleton.JointRecord) error {
	p.joints++
	return p.err
}

func (p *countingPublisher) Close() { p.closed = true }

func TestMulti(t *testing.T) {
	failing := &countingPublisher{err: errors.New("broker down")}
	ok := &countingPublisher{}
	m := Multi{failing, ok}

	err := m.Publish(context.Background(), gesture.Event{Gesture: gesture.Menu, Timestamp: time.Now()})
	if err == nil || err.Error() != "broker down" {
		t.Errorf("Publish() error = %v, want broker down", err)
	}
	if failing.events != 1 || ok.events != 1 {
		t.Errorf("events = %d, %d, want 1, 1", failing.events, ok.events)
	}

	if err := m.PublishJoints(context.Background(), nil); err == nil {
		t.Error("PublishJoints() should report the failing publisher")
	}
	if ok.joints != 1 {
		t.Errorf("joints = %d, want 1", ok.joints)
	}

	m.Close()
	if !failing.closed || !ok.closed {
		t.Error("Close() should close every publisher")
	}
}

func TestMulti_Empty(t *testing.T) {
	var m Multi
	if err := m.Publish(context.Background(), gesture.Event{Gesture: gesture.Menu}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	m.Close()
}
