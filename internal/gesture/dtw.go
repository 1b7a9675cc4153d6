package gesture

import (
	"math"
	"sort"
	"sync"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

// DTWDistance calculates Dynamic Time Warping distance between two paths.
// Returns infinity if either path is empty.
// The distance is normalized by the maximum path length.
func DTWDistance(path1, path2 []PathPoint) float64 {
	n := len(path1)
	m := len(path2)

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// (n+1) x (m+1) cost matrix initialized to infinity
	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := pointDistance(path1[i-1], path2[j-1])
			dtw[i][j] = cost + min3(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return dtw[n][m] / float64(max(n, m))
}

// pointDistance calculates the Euclidean distance between two PathPoints.
func pointDistance(a, b PathPoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// min3 returns the minimum of three float64 values.
func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

// DynamicMatcher matches buffered signal paths against registered templates using DTW.
type DynamicMatcher struct {
	templates []*Template
	mu        sync.RWMutex
}

// NewDynamicMatcher creates a new DynamicMatcher instance.
func NewDynamicMatcher() *DynamicMatcher {
	return &DynamicMatcher{
		templates: make([]*Template, 0),
	}
}

// AddTemplate adds a gesture template to the matcher.
func (m *DynamicMatcher) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(m.templates, t)
}

// RemoveTemplate removes a template by its ID.
func (m *DynamicMatcher) RemoveTemplate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return
		}
	}
}

// Templates returns a snapshot of the registered templates.
func (m *DynamicMatcher) Templates() []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Template, len(m.templates))
	copy(out, m.templates)
	return out
}

// Match finds templates on the given signal that match path.
// The skeleton is handed to template guards and may be nil when no template has one.
// Returns matches sorted by score in descending order (best matches first).
func (m *DynamicMatcher) Match(signal Signal, path []PathPoint, s *skeleton.Skeleton) []Match {
	if len(path) == 0 {
		return nil
	}

	extent := pathExtent(path)
	normalizedInput := normalizePath(path)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, template := range m.templates {
		if template.Signal != signal || len(template.Path) == 0 {
			continue
		}
		if extent < template.MinExtent {
			continue
		}
		if template.Guard != nil && (s == nil || !template.Guard(s)) {
			continue
		}

		distance := DTWDistance(normalizedInput, normalizePath(template.Path))
		if math.IsInf(distance, 1) || distance > template.Tolerance {
			continue
		}

		matches = append(matches, Match{
			Template: template,
			Score:    1.0 / (1.0 + distance),
			Distance: distance,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// pathExtent returns the larger side of the path's bounding box.
func pathExtent(path []PathPoint) float64 {
	if len(path) == 0 {
		return 0
	}
	minX, maxX, minY, maxY := bounds(path)
	return math.Max(maxX-minX, maxY-minY)
}

func bounds(path []PathPoint) (minX, maxX, minY, maxY float64) {
	minX, maxX = path[0].X, path[0].X
	minY, maxY = path[0].Y, path[0].Y
	for _, p := range path {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}

// normalizePath translates the path to the origin and scales both axes by the
// same factor so the longer side spans 0-1. Using one factor keeps jitter on
// the minor axis small. Timestamps are preserved.
func normalizePath(path []PathPoint) []PathPoint {
	if path == nil {
		return nil
	}

	n := len(path)
	if n == 0 {
		return []PathPoint{}
	}

	if n == 1 {
		return []PathPoint{
			{X: 0, Y: 0, Timestamp: path[0].Timestamp},
		}
	}

	minX, maxX, minY, maxY := bounds(path)
	extent := math.Max(maxX-minX, maxY-minY)

	normalized := make([]PathPoint, n)
	for i, p := range path {
		var normX, normY float64
		if extent > 0 {
			normX = (p.X - minX) / extent
			normY = (p.Y - minY) / extent
		}
		normalized[i] = PathPoint{
			X:         normX,
			Y:         normY,
			Timestamp: p.Timestamp,
		}
	}

	return normalized
}
