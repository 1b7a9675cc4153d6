package gesture

import (
	"encoding/json"
	"fmt"
)

// Trainer turns recorded samples into dynamic gesture template paths.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Sample is one recorded performance of a gesture on a single signal.
type Sample struct {
	Signal    Signal      `json:"signal"`
	Path      []PathPoint `json:"path"`
	Timestamp int64       `json:"timestamp"`
}

// Train averages multiple recorded samples into a single template path.
// Paths are resampled to the length of the first sample before averaging.
// All samples must be traced on the same signal.
func (t *Trainer) Train(samples []json.RawMessage) (Signal, []PathPoint, error) {
	if len(samples) == 0 {
		return "", nil, fmt.Errorf("no samples provided")
	}

	var signal Signal
	var allPaths [][]PathPoint
	for i, raw := range samples {
		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return "", nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}

		if len(sample.Path) < 2 {
			return "", nil, fmt.Errorf("sample %d has insufficient path points", i)
		}

		if sample.Signal == "" {
			sample.Signal = SignalHandRight
		}
		if i == 0 {
			signal = sample.Signal
		} else if sample.Signal != signal {
			return "", nil, fmt.Errorf("sample %d traced on %q, expected %q", i, sample.Signal, signal)
		}

		allPaths = append(allPaths, sample.Path)
	}

	targetLength := len(allPaths[0])
	resampled := make([][]PathPoint, len(allPaths))
	for i, path := range allPaths {
		resampled[i] = resamplePath(path, targetLength)
	}

	averaged := make([]PathPoint, targetLength)
	n := float64(len(resampled))
	for i := 0; i < targetLength; i++ {
		var sumX, sumY float64
		for _, path := range resampled {
			sumX += path[i].X
			sumY += path[i].Y
		}
		averaged[i] = PathPoint{
			X:         sumX / n,
			Y:         sumY / n,
			Timestamp: resampled[0][i].Timestamp,
		}
	}

	return signal, averaged, nil
}

// resamplePath resamples a path to have exactly targetLength points.
// Uses linear interpolation for smooth resampling.
func resamplePath(path []PathPoint, targetLength int) []PathPoint {
	if len(path) == 0 {
		return nil
	}

	if len(path) == 1 || targetLength <= 1 {
		return []PathPoint{path[0]}
	}

	result := make([]PathPoint, targetLength)

	for i := 0; i < targetLength; i++ {
		t := float64(i) / float64(targetLength-1)
		pos := t * float64(len(path)-1)

		idx := int(pos)
		if idx >= len(path)-1 {
			idx = len(path) - 2
		}

		frac := pos - float64(idx)

		p1 := path[idx]
		p2 := path[idx+1]

		result[i] = PathPoint{
			X:         p1.X + frac*(p2.X-p1.X),
			Y:         p1.Y + frac*(p2.Y-p1.Y),
			Timestamp: p1.Timestamp + int64(frac*float64(p2.Timestamp-p1.Timestamp)),
		}
	}

	return result
}
