package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleShutdown stops the Python service after this long without a frame.
const idleShutdown = 30 * time.Second

// ErrServiceNotFound is returned when mediapipe_service.py cannot be located.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

// MediaPipeDetector runs hand landmark detection in a long-lived Python
// MediaPipe process. Frames go in as length-prefixed JPEG, hands come back as
// one JSON line per frame.
type MediaPipeDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector locates the service script. The process itself is
// started on the first Detect call.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 1
	}
	return &MediaPipeDetector{config: config, script: script}, nil
}

// Detect sends one frame to the service and returns at most MaxHands hands.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := d.writeFrame(buf.GetBytes()); err != nil {
		// the pipe is unusable; restart on the next frame
		d.shutdown()
		return nil, err
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	hands, err := parseResponse(line, d.config.MaxHands)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return hands, nil
}

// Close shuts the service down.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) writeFrame(data []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := d.stdin.Write(header[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)
	d.cmd.Stderr = os.Stderr

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	d.stdin.Close()
	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// jsonHand is one hand as reported by the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func parseResponse(line []byte, maxHands int) ([]HandLandmarks, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", response.Error)
	}

	hands := response.Hands
	if maxHands > 0 && len(hands) > maxHands {
		hands = hands[:maxHands]
	}

	out := make([]HandLandmarks, 0, len(hands))
	for _, h := range hands {
		if len(h.Points) != NumLandmarks {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		out = append(out, lm)
	}
	return out, nil
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

func findServiceScript() string {
	home, _ := os.UserHomeDir()
	return firstExisting([]string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(executableDir(), "scripts", "mediapipe_service.py"),
		filepath.Join(home, ".gesturefall", "scripts", "mediapipe_service.py"),
	})
}

// findVenvPython prefers a project virtualenv interpreter over python3.
func findVenvPython() string {
	home, _ := os.UserHomeDir()
	return firstExisting([]string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(executableDir(), "venv", "bin", "python"),
		filepath.Join(home, ".gesturefall", "venv", "bin", "python"),
	})
}
