// Package app wires the pose source, gesture controller, publisher and
// store together.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/publish"
	"github.com/ayusman/vitruvius/internal/sensor"
	"github.com/ayusman/vitruvius/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	// Store persists templates, recognitions and settings. Optional.
	Store *store.Store

	// Source delivers body frames.
	Source sensor.Source

	// Publisher receives recognized gestures. Defaults to LogPublisher.
	Publisher publish.Publisher

	// Gestures configures the gesture controller.
	Gestures gesture.Config

	// FPS is the frame polling rate.
	FPS int

	// PublishJoints also publishes the joints of the tracked body every frame.
	PublishJoints bool

	// JointRate caps joint messages per second. Zero publishes every frame.
	JointRate float64

	// PublishTimeout bounds each publish call.
	PublishTimeout time.Duration

	// Retention deletes recognitions older than this on Start. Zero keeps all.
	Retention time.Duration
}

// App is the main application that orchestrates gesture recognition and publishing.
type App struct {
	config     Config
	controller *gesture.Controller
	enabled    bool
	latest     *sensor.Body
	trackingID uint64
	lastEvent  *gesture.Event
	listeners  []func(gesture.Event)
	toggled    []func(bool)
	joints     *rate.Limiter
	mu         sync.RWMutex
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New creates a new App instance with the given configuration.
// Publishing starts enabled unless the store says otherwise.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = sensor.DefaultFPS
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 2 * time.Second
	}
	if config.Publisher == nil {
		config.Publisher = publish.LogPublisher{}
	}

	a := &App{
		config:     config,
		controller: gesture.NewController(config.Gestures),
		enabled:    true,
	}
	if config.JointRate > 0 {
		a.joints = rate.NewLimiter(rate.Limit(config.JointRate), 1)
	}
	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingPublishing, true)
	}
	a.controller.OnRecognized(a.handleEvent)

	return a
}

// SetEnabled turns publishing on or off, persists the choice and notifies
// OnEnabledChanged observers.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	observers := make([]func(bool), len(a.toggled))
	copy(observers, a.toggled)
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingPublishing, enabled); err != nil {
			log.Warn().Err(err).Msg("failed to save publishing setting")
		}
	}
	log.Info().Bool("enabled", enabled).Msg("publishing toggled")

	// Call the observers outside the lock to prevent deadlocks
	for _, fn := range observers {
		fn(enabled)
	}
}

// OnEnabledChanged registers a callback invoked after every SetEnabled,
// whichever surface made the change.
func (a *App) OnEnabledChanged(fn func(bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toggled = append(a.toggled, fn)
}

// IsEnabled returns whether recognized gestures are published.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnRecognized registers a callback invoked for every recognized gesture,
// whether or not it was published.
func (a *App) OnRecognized(fn func(gesture.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Controller returns the gesture controller.
func (a *App) Controller() *gesture.Controller {
	return a.controller
}

// Store returns the configured store, or nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// LatestBody returns the body tracked on the most recent frame.
func (a *App) LatestBody() (sensor.Body, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return sensor.Body{}, false
	}
	return *a.latest, true
}

// LastEvent returns the most recently recognized gesture.
func (a *App) LastEvent() (gesture.Event, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastEvent == nil {
		return gesture.Event{}, false
	}
	return *a.lastEvent, true
}

// LoadTemplates adds every stored template to the gesture controller.
func (a *App) LoadTemplates() error {
	if a.config.Store == nil {
		return nil
	}

	templates, err := a.config.Store.Templates().List()
	if err != nil {
		return err
	}

	loaded := 0
	for _, t := range templates {
		if err := a.addTemplate(t); err != nil {
			log.Warn().Err(err).Str("template", t.Name).Msg("skipping template")
			continue
		}
		loaded++
	}

	log.Info().Int("count", loaded).Msg("loaded gesture templates")
	return nil
}

// LoadTemplate adds or replaces one stored template in the gesture controller.
func (a *App) LoadTemplate(id string) error {
	if a.config.Store == nil {
		return errors.New("no store configured")
	}
	t, err := a.config.Store.Templates().GetByID(id)
	if err != nil {
		return err
	}
	return a.addTemplate(t)
}

// RemoveTemplate removes a template from the gesture controller.
func (a *App) RemoveTemplate(id string) {
	a.controller.Matcher().RemoveTemplate(id)
}

func (a *App) addTemplate(t *store.Template) error {
	gestureType, err := gesture.ParseType(t.Gesture)
	if err != nil {
		return err
	}

	path, err := a.config.Store.Templates().GetPath(t.ID)
	if err != nil {
		return fmt.Errorf("load path: %w", err)
	}
	if len(path) < 2 {
		return fmt.Errorf("template %s has no path", t.ID)
	}

	a.controller.Matcher().AddTemplate(&gesture.Template{
		ID:        t.ID,
		Gesture:   gestureType,
		Signal:    gesture.Signal(t.Signal),
		Path:      storePathToGesture(path),
		Tolerance: t.Tolerance,
		MinExtent: t.MinExtent,
	})
	return nil
}

// storePathToGesture converts store.PathPoint slice to gesture.PathPoint slice.
func storePathToGesture(path []store.PathPoint) []gesture.PathPoint {
	points := make([]gesture.PathPoint, len(path))
	for i, p := range path {
		points[i] = gesture.PathPoint{X: p.X, Y: p.Y, Timestamp: p.TimestampMs}
	}
	return points
}

// Start opens the source and begins the recognition pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}
	if a.config.Source == nil {
		return errors.New("no source configured")
	}

	if err := a.config.Source.Open(); err != nil {
		return err
	}

	if a.config.Store != nil && a.config.Retention > 0 {
		n, err := a.config.Store.Recognitions().DeleteBefore(time.Now().Add(-a.config.Retention))
		if err != nil {
			log.Warn().Err(err).Msg("failed to prune recognitions")
		} else if n > 0 {
			log.Info().Int64("count", n).Msg("pruned old recognitions")
		}
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Info().Int("fps", a.config.FPS).Msg("recognition pipeline started")
	return nil
}

// Stop halts the pipeline and closes the source.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh = nil
	a.doneCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := a.config.Source.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing source")
	}

	log.Info().Msg("recognition pipeline stopped")
}
