// Package capture reads video frames from a webcam using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Defaults used when Options leave a field at zero.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device delivered no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a frame source. ReadFrame hands ownership of the Mat to the caller.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	// Size is the frame size the camera was configured for.
	Size() (width, height int)
}

// Options configures a device camera.
type Options struct {
	Device int
	Width  int
	Height int
	FPS    int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	return o
}

type deviceCamera struct {
	opts    Options
	capture *gocv.VideoCapture
	mu      sync.Mutex
}

// NewCamera returns a closed camera for the configured device.
func NewCamera(opts Options) Camera {
	return &deviceCamera{opts: opts.withDefaults()}
}

// Open starts capturing. Opening an open camera is a no-op.
func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.opts.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.opts.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open camera %d: device unavailable", c.opts.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))

	c.capture = vc
	return nil
}

// Close releases the device.
func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame grabs the next frame. The caller must Close the returned Mat.
func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	return &mat, nil
}

// SetFPS changes the capture rate; values <= 0 are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opts.FPS = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.FPS
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

func (c *deviceCamera) Size() (int, int) {
	return c.opts.Width, c.opts.Height
}
