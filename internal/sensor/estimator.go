package sensor

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/vitruvius/internal/skeleton"
)

// Estimator turns one JPEG encoded image into tracked bodies.
type Estimator interface {
	// Estimate returns the bodies found in the image.
	// Returns an empty slice if nobody is visible.
	Estimate(jpeg []byte) ([]Body, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// ProcessConfig describes the pose estimation helper process.
type ProcessConfig struct {
	// Command is the executable, e.g. "python3".
	Command string

	// Args are passed to Command, usually the service script path.
	Args []string

	// Env is appended to the current environment.
	Env []string

	// IdleTimeout stops the process after this long without a request.
	IdleTimeout time.Duration
}

// DefaultProcessConfig returns a ProcessConfig running the pose service script.
func DefaultProcessConfig(script string) ProcessConfig {
	return ProcessConfig{
		Command:     "python3",
		Args:        []string{script},
		IdleTimeout: 30 * time.Second,
	}
}

// ProcessEstimator implements Estimator with a helper process. Each request
// is a 4 byte big-endian length followed by the JPEG bytes on stdin; the
// process answers with one JSON line on stdout.
type ProcessEstimator struct {
	config    ProcessConfig
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewProcessEstimator creates a ProcessEstimator.
// The process is started lazily on the first request.
func NewProcessEstimator(config ProcessConfig) (*ProcessEstimator, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("pose service command is empty")
	}
	if _, err := exec.LookPath(config.Command); err != nil {
		return nil, fmt.Errorf("pose service command: %w", err)
	}
	return &ProcessEstimator{config: config}, nil
}

// Estimate sends the image to the helper process and parses its answer.
func (e *ProcessEstimator) Estimate(jpeg []byte) ([]Body, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	if err := writeFrame(e.stdin, jpeg); err != nil {
		return nil, err
	}

	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	bodies, err := DecodeBodies(line)
	if err != nil {
		return nil, err
	}

	e.resetIdleTimer()
	return bodies, nil
}

// Close shuts down the helper process.
func (e *ProcessEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *ProcessEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	e.cmd = exec.Command(e.config.Command, e.config.Args...)
	if len(e.config.Env) > 0 {
		e.cmd.Env = append(os.Environ(), e.config.Env...)
	}

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	log.Debug().Str("command", e.config.Command).Int("pid", e.cmd.Process.Pid).Msg("pose service started")

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true

	return nil
}

func (e *ProcessEstimator) shutdown() error {
	if !e.started {
		return nil
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	return err
}

func (e *ProcessEstimator) resetIdleTimer() {
	if e.config.IdleTimeout <= 0 {
		return
	}
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(e.config.IdleTimeout, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.shutdown(); err != nil {
			log.Warn().Err(err).Msg("pose service exited")
		}
	})
}

// writeFrame writes one length-prefixed image.
func writeFrame(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// jsonResponse represents the JSON line written by the pose service.
type jsonResponse struct {
	Bodies []jsonBody `json:"bodies"`
}

type jsonBody struct {
	ID     uint64               `json:"id"`
	Joints map[string]jsonJoint `json:"joints"`
}

type jsonJoint struct {
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Z           float64   `json:"z"`
	State       string    `json:"state"`
	Orientation []float64 `json:"orientation,omitempty"` // x, y, z, w
}

// DecodeBodies parses one JSON line in the pose service format. Joints
// without a state are tracked and orientations are normalized.
func DecodeBodies(line []byte) ([]Body, error) {
	var response jsonResponse
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	bodies := make([]Body, 0, len(response.Bodies))
	for _, b := range response.Bodies {
		body, err := b.toBody()
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", b.ID, err)
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

func (b jsonBody) toBody() (Body, error) {
	body := Body{
		TrackingID: b.ID,
		Skeleton:   skeleton.NewSkeleton(),
	}

	for name, j := range b.Joints {
		jt, err := skeleton.ParseJointType(name)
		if err != nil {
			return Body{}, err
		}

		state := skeleton.Tracked
		if j.State != "" {
			if state, err = skeleton.ParseTrackingState(j.State); err != nil {
				return Body{}, err
			}
		}

		body.Skeleton.SetJoint(jt, skeleton.Point3D{X: j.X, Y: j.Y, Z: j.Z}, state)
		if state != skeleton.NotTracked {
			body.Tracked = true
		}

		if len(j.Orientation) == 4 {
			q := mgl64.Quat{
				V: mgl64.Vec3{j.Orientation[0], j.Orientation[1], j.Orientation[2]},
				W: j.Orientation[3],
			}
			body.Skeleton.SetRotation(jt, q.Normalize())
		}
	}

	return body, nil
}
