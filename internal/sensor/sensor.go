// Package sensor produces tracked bodies from a depth or video sensor.
package sensor

import (
	"errors"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("sensor source is not open")

	// ErrNoBody is returned when a frame contains no tracked body.
	ErrNoBody = errors.New("no tracked body")
)

// Body is one person seen by the sensor.
type Body struct {
	TrackingID uint64            `json:"trackingId"`
	Tracked    bool              `json:"tracked"`
	Skeleton   skeleton.Skeleton `json:"-"`
}

// Frame holds the bodies observed at one instant.
type Frame struct {
	Timestamp int64 // milliseconds
	Bodies    []Body
}

// Source defines the interface for body frame sources.
type Source interface {
	Open() error
	Close() error
	ReadFrame() (*Frame, error)
}

// Closest returns the tracked body nearest to the sensor, measured at the
// base of the spine. Bodies whose spine base is not tracked are skipped.
func Closest(bodies []Body) (*Body, error) {
	var closest *Body
	for i := range bodies {
		b := &bodies[i]
		if !b.Tracked {
			continue
		}
		base := b.Skeleton.Joint(skeleton.SpineBase)
		if base.TrackingState == skeleton.NotTracked {
			continue
		}
		if closest == nil || base.Position.Z < closest.Skeleton.Joint(skeleton.SpineBase).Position.Z {
			closest = b
		}
	}
	if closest == nil {
		return nil, ErrNoBody
	}
	return closest, nil
}
