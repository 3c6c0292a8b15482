package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back frames for tests. With no frames configured it
// synthesizes a blank frame of its configured size on every read.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	width   int
	height  int
	mu      sync.Mutex
	running bool
	openErr error
	reads   int
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		width:  DefaultWidth,
		height: DefaultHeight,
	}
}

// FailOpen makes Open return err, simulating a missing webcam.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	c.reads++

	if len(c.frames) == 0 {
		blank := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
		return &blank, nil
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, fmt.Errorf("no more frames")
		}
		c.index = 0
	}

	// Clone so callers can Close their copy
	frame := c.frames[c.index].Clone()
	c.index++
	return &frame, nil
}

// Reads reports how many successful-or-not reads hit an open camera.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *MockCamera) SetFPS(fps int) {}
func (c *MockCamera) FPS() int       { return DefaultFPS }
func (c *MockCamera) Size() (int, int) {
	return c.width, c.height
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}
