package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/sensor"
	"github.com/ayusman/vitruvius/internal/skeleton"
	"github.com/ayusman/vitruvius/internal/store"
)

type fakePublisher struct {
	events []gesture.Event
	joints int
	err    error
	closed bool
	mu     sync.Mutex
}

func (p *fakePublisher) Publish(_ context.Context, e gesture.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) PublishJoints(_ context.Context, joints map[string]skeleton.JointRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joints++
	return nil
}

func (p *fakePublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePublisher) published() []gesture.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gesture.Event(nil), p.events...)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func frameOf(sk skeleton.Skeleton) *sensor.Frame {
	return &sensor.FramesOf(sk)[0]
}

func TestApp_ProcessFrame_PublishesAndRecords(t *testing.T) {
	s := newTestStore(t)
	pub := &fakePublisher{}
	a := New(Config{Store: s, Publisher: pub})

	var heard []gesture.Event
	a.OnRecognized(func(e gesture.Event) {
		heard = append(heard, e)
	})

	events := a.ProcessFrame(frameOf(skeleton.JoinedHandsSkeleton()))
	if len(events) != 1 || events[0].Gesture != gesture.JoinedHands {
		t.Fatalf("ProcessFrame() = %v, want joined_hands", events)
	}

	if got := pub.published(); len(got) != 1 || got[0].Gesture != gesture.JoinedHands {
		t.Errorf("published = %v, want joined_hands", got)
	}
	if len(heard) != 1 {
		t.Errorf("listeners called %d times, want 1", len(heard))
	}

	last, ok := a.LastEvent()
	if !ok || last.Gesture != gesture.JoinedHands {
		t.Errorf("LastEvent() = %v, %v", last, ok)
	}

	recs, err := s.Recognitions().ListRecent(10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("recorded %d recognitions, want 1", len(recs))
	}
	if recs[0].Gesture != "joined_hands" || !recs[0].Published || recs[0].TrackingID != 1 {
		t.Errorf("recognition = %+v", recs[0])
	}
}

func TestApp_ProcessFrame_HeldPoseFiresOnce(t *testing.T) {
	pub := &fakePublisher{}
	a := New(Config{Publisher: pub})

	for i := 0; i < 5; i++ {
		a.ProcessFrame(frameOf(skeleton.JoinedHandsSkeleton()))
	}

	if got := len(pub.published()); got != 1 {
		t.Errorf("published %d events, want 1", got)
	}
}

func TestApp_Disabled(t *testing.T) {
	s := newTestStore(t)
	pub := &fakePublisher{}
	a := New(Config{Store: s, Publisher: pub})
	a.SetEnabled(false)

	events := a.ProcessFrame(frameOf(skeleton.JoinedHandsSkeleton()))
	if len(events) != 1 {
		t.Fatalf("ProcessFrame() returned %d events, want 1", len(events))
	}
	if got := len(pub.published()); got != 0 {
		t.Errorf("published %d events while disabled", got)
	}

	recs, _ := s.Recognitions().ListRecent(10)
	if len(recs) != 1 || recs[0].Published {
		t.Errorf("recognitions = %+v, want one unpublished", recs)
	}
}

func TestApp_EnabledPersists(t *testing.T) {
	s := newTestStore(t)

	a := New(Config{Store: s})
	if !a.IsEnabled() {
		t.Fatal("new app should be enabled")
	}
	a.SetEnabled(false)

	b := New(Config{Store: s})
	if b.IsEnabled() {
		t.Error("publishing setting not restored from store")
	}
}

func TestApp_OnEnabledChanged(t *testing.T) {
	a := New(Config{})

	var got []bool
	a.OnEnabledChanged(func(enabled bool) {
		// Observers run outside the lock
		if a.IsEnabled() != enabled {
			t.Errorf("observer saw IsEnabled() = %v, want %v", a.IsEnabled(), enabled)
		}
		got = append(got, enabled)
	})

	a.SetEnabled(false)
	a.SetEnabled(true)

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("observer calls = %v, want [false true]", got)
	}
}

func TestApp_PublishError(t *testing.T) {
	s := newTestStore(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	a := New(Config{Store: s, Publisher: pub})

	a.ProcessFrame(frameOf(skeleton.JoinedHandsSkeleton()))

	recs, _ := s.Recognitions().ListRecent(10)
	if len(recs) != 1 || recs[0].Published {
		t.Errorf("recognitions = %+v, want one unpublished", recs)
	}
}

func TestApp_LatestBody(t *testing.T) {
	a := New(Config{})

	if _, ok := a.LatestBody(); ok {
		t.Error("LatestBody() before any frame should be false")
	}

	a.ProcessFrame(frameOf(skeleton.StandingSkeleton()))
	body, ok := a.LatestBody()
	if !ok || body.TrackingID != 1 {
		t.Errorf("LatestBody() = %v, %v", body.TrackingID, ok)
	}

	a.ProcessFrame(&sensor.Frame{})
	if _, ok := a.LatestBody(); ok {
		t.Error("LatestBody() after an empty frame should be false")
	}
}

func TestApp_PublishJoints(t *testing.T) {
	pub := &fakePublisher{}
	a := New(Config{Publisher: pub, PublishJoints: true})

	a.ProcessFrame(frameOf(skeleton.StandingSkeleton()))
	a.ProcessFrame(frameOf(skeleton.StandingSkeleton()))
	a.ProcessFrame(&sensor.Frame{})

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.joints != 2 {
		t.Errorf("published joints %d times, want 2", pub.joints)
	}
}

func TestApp_PublishJointsRateLimited(t *testing.T) {
	pub := &fakePublisher{}
	a := New(Config{Publisher: pub, PublishJoints: true, JointRate: 0.5})

	for i := 0; i < 5; i++ {
		a.ProcessFrame(frameOf(skeleton.StandingSkeleton()))
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.joints != 1 {
		t.Errorf("published joints %d times, want 1", pub.joints)
	}
}

func TestApp_LoadTemplates(t *testing.T) {
	s := newTestStore(t)

	good := &store.Template{ID: "t1", Name: "Custom swipe", Gesture: "swipe_left", Signal: "hand_right", Tolerance: 0.3}
	bad := &store.Template{ID: "t2", Name: "Unknown", Gesture: "cartwheel", Signal: "hand_right", Tolerance: 0.3}
	empty := &store.Template{ID: "t3", Name: "No path", Gesture: "swipe_up", Signal: "hand_left", Tolerance: 0.3}
	for _, tmpl := range []*store.Template{good, bad, empty} {
		if err := s.Templates().Create(tmpl); err != nil {
			t.Fatalf("Create(%s) error = %v", tmpl.ID, err)
		}
	}
	path := []store.PathPoint{{X: 0.3, Y: 0}, {X: 0, Y: 0}, {X: -0.3, Y: 0}}
	for _, id := range []string{"t1", "t2"} {
		if err := s.Templates().SavePath(id, path); err != nil {
			t.Fatalf("SavePath(%s) error = %v", id, err)
		}
	}

	a := New(Config{Store: s})
	builtin := len(a.Controller().Matcher().Templates())

	if err := a.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}

	templates := a.Controller().Matcher().Templates()
	if len(templates) != builtin+1 {
		t.Fatalf("got %d templates, want %d", len(templates), builtin+1)
	}

	var found *gesture.Template
	for _, tmpl := range templates {
		if tmpl.ID == "t1" {
			found = tmpl
		}
	}
	if found == nil {
		t.Fatal("stored template not loaded")
	}
	if found.Gesture != gesture.SwipeLeft || found.Signal != gesture.SignalHandRight || len(found.Path) != 3 {
		t.Errorf("loaded template = %+v", found)
	}

	a.RemoveTemplate("t1")
	if got := len(a.Controller().Matcher().Templates()); got != builtin {
		t.Errorf("after RemoveTemplate got %d templates, want %d", got, builtin)
	}

	if err := a.LoadTemplate("t1"); err != nil {
		t.Errorf("LoadTemplate() error = %v", err)
	}
	if err := a.LoadTemplate("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("LoadTemplate(missing) error = %v, want ErrNotFound", err)
	}
}

func TestApp_StartStop(t *testing.T) {
	frames := sensor.FramesOf(skeleton.StandingSkeleton(), skeleton.JoinedHandsSkeleton())
	source := sensor.NewMockSource(frames, true)
	pub := &fakePublisher{}

	a := New(Config{Source: source, Publisher: pub, FPS: 100})

	recognized := make(chan gesture.Event, 16)
	a.OnRecognized(func(e gesture.Event) {
		select {
		case recognized <- e:
		default:
		}
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// Starting twice is a no-op
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	select {
	case e := <-recognized:
		if e.Gesture != gesture.JoinedHands {
			t.Errorf("recognized %s, want joined_hands", e.Gesture)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no gesture recognized")
	}

	a.Stop()
	a.Stop()

	if _, err := source.ReadFrame(); !errors.Is(err, sensor.ErrSourceNotOpen) {
		t.Errorf("source still open after Stop, ReadFrame() error = %v", err)
	}
}

func TestApp_StartWithoutSource(t *testing.T) {
	a := New(Config{})
	if err := a.Start(); err == nil {
		t.Error("Start() without source should fail")
	}
}
