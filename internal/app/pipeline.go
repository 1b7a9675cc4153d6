package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/sensor"
	"github.com/ayusman/vitruvius/internal/store"
)

// runPipeline polls the source at the configured rate until stopCh closes.
//
// Pipeline logic:
// 1. Read a frame from the source
// 2. Pick the closest tracked body
// 3. Reset buffered motion when the tracked body changes
// 4. Feed the skeleton to the gesture controller
// 5. Publish, record and broadcast recognized gestures
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	var lastErr string
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.config.Source.ReadFrame()
			if err != nil {
				// Log repeated errors once
				if err.Error() != lastErr {
					log.Warn().Err(err).Msg("error reading frame")
					lastErr = err.Error()
				}
				continue
			}
			lastErr = ""
			a.ProcessFrame(frame)
		}
	}
}

// ProcessFrame runs one frame through recognition and returns the gestures
// recognized on it.
func (a *App) ProcessFrame(frame *sensor.Frame) []gesture.Event {
	body, err := sensor.Closest(frame.Bodies)
	if err != nil {
		a.mu.Lock()
		lost := a.latest != nil
		a.latest = nil
		a.trackingID = 0
		a.mu.Unlock()

		if lost {
			a.controller.Reset()
			log.Debug().Msg("body lost")
		}
		return nil
	}

	tracked := *body
	a.mu.Lock()
	changed := a.latest == nil || a.trackingID != tracked.TrackingID
	a.latest = &tracked
	a.trackingID = tracked.TrackingID
	a.mu.Unlock()

	if changed {
		a.controller.Reset()
		log.Debug().Uint64("trackingId", tracked.TrackingID).Float64("height", tracked.Skeleton.Height()).Msg("tracking body")
	}

	events := a.controller.Update(&tracked.Skeleton)

	if a.config.PublishJoints && a.IsEnabled() && (a.joints == nil || a.joints.Allow()) {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.PublishTimeout)
		if err := a.config.Publisher.PublishJoints(ctx, tracked.Skeleton.SerializeAll()); err != nil {
			log.Debug().Err(err).Msg("failed to publish joints")
		}
		cancel()
	}

	return events
}

// handleEvent is called by the controller for every recognized gesture.
func (a *App) handleEvent(e gesture.Event) {
	a.mu.Lock()
	enabled := a.enabled
	trackingID := a.trackingID
	event := e
	a.lastEvent = &event
	listeners := make([]func(gesture.Event), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.Unlock()

	published := false
	if enabled {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.PublishTimeout)
		err := a.config.Publisher.Publish(ctx, e)
		cancel()
		if err != nil {
			level := log.Warn()
			if errors.Is(err, context.DeadlineExceeded) {
				level = log.Error()
			}
			level.Err(err).Str("gesture", e.Gesture.Topic()).Msg("failed to publish gesture")
		} else {
			published = true
		}
	}

	log.Info().
		Str("gesture", e.Gesture.Topic()).
		Float64("score", e.Score).
		Bool("published", published).
		Msg("gesture recognized")

	if a.config.Store != nil {
		rec := &store.Recognition{
			Gesture:      e.Gesture.Topic(),
			Score:        e.Score,
			TrackingID:   trackingID,
			Published:    published,
			RecognizedAt: e.Timestamp,
		}
		if err := a.config.Store.Recognitions().Create(rec); err != nil {
			log.Warn().Err(err).Msg("failed to record recognition")
		}
	}

	// Call the listeners outside the lock to prevent deadlocks
	for _, fn := range listeners {
		fn(e)
	}
}
