package sensor

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Capture geometry requested from the device.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var errEmptyImage = errors.New("camera returned an empty image")

// Snapshot is one captured image: the decoded pixels for motion analysis
// and the JPEG that goes to the pose service and the dashboard.
type Snapshot struct {
	Mat  gocv.Mat
	JPEG []byte
}

// Close releases the pixel buffer. The JPEG stays valid.
func (s *Snapshot) Close() error {
	return s.Mat.Close()
}

// newSnapshot takes ownership of mat and encodes it.
func newSnapshot(mat gocv.Mat) (*Snapshot, error) {
	if mat.Empty() {
		mat.Close()
		return nil, errEmptyImage
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		mat.Close()
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	return &Snapshot{Mat: mat, JPEG: append([]byte(nil), buf.GetBytes()...)}, nil
}

// Camera produces snapshots for a PoseSource.
type Camera interface {
	Open() error
	Close() error
	// Capture grabs the next image. The caller closes the Snapshot.
	Capture() (*Snapshot, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// deviceCamera captures from a local video device.
type deviceCamera struct {
	mu     sync.Mutex
	device int
	fps    int
	video  *gocv.VideoCapture
}

// NewCamera returns a Camera for the given device index. The device is
// not touched until Open.
func NewCamera(device int) Camera {
	return &deviceCamera{device: device, fps: DefaultFPS}
}

func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.video != nil {
		return nil
	}
	video, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return fmt.Errorf("open video device %d: %w", c.device, err)
	}
	video.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	video.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	video.Set(gocv.VideoCaptureFPS, float64(c.fps))
	c.video = video
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.video == nil {
		return nil
	}
	err := c.video.Close()
	c.video = nil
	return err
}

func (c *deviceCamera) Capture() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.video == nil {
		return nil, ErrSourceNotOpen
	}
	mat := gocv.NewMat()
	if !c.video.Read(&mat) {
		mat.Close()
		return nil, fmt.Errorf("read from video device %d failed", c.device)
	}
	return newSnapshot(mat)
}

// SetFPS changes the requested rate. Non-positive values are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.video != nil {
		c.video.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video != nil
}

// ReplayCamera serves a fixed list of images, for tests and recordings.
type ReplayCamera struct {
	mu     sync.Mutex
	images []*gocv.Mat
	next   int
	loop   bool
	open   bool
}

// NewReplayCamera replays images in order. With loop set it starts over
// after the last one; otherwise Capture fails once they run out.
func NewReplayCamera(images []*gocv.Mat, loop bool) *ReplayCamera {
	return &ReplayCamera{images: images, loop: loop}
}

func (c *ReplayCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.next = 0
	return nil
}

func (c *ReplayCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *ReplayCamera) Capture() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrSourceNotOpen
	}
	if c.next >= len(c.images) {
		if !c.loop || len(c.images) == 0 {
			return nil, errors.New("replay exhausted")
		}
		c.next = 0
	}
	img := c.images[c.next]
	c.next++

	// The snapshot owns a copy; the replay list stays intact
	return newSnapshot(img.Clone())
}

func (c *ReplayCamera) SetFPS(int) {}

func (c *ReplayCamera) FPS() int { return DefaultFPS }

func (c *ReplayCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
