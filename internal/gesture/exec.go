package gesture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ayusman/gesturefall/internal/detector"
)

// ExecClassifier delegates classification to an external model executable.
// Each call runs the command once with {"pose": [...]} on stdin and expects a
// JSON array of predictions on stdout.
type ExecClassifier struct {
	command string
	args    []string
	dir     string
	timeout time.Duration
}

// NewExecClassifier runs command with args from dir, killing it after timeout.
func NewExecClassifier(command string, args []string, dir string, timeout time.Duration) *ExecClassifier {
	return &ExecClassifier{
		command: command,
		args:    args,
		dir:     dir,
		timeout: timeout,
	}
}

type execRequest struct {
	Pose []float64 `json:"pose"`
}

// Classify runs the model once for pose.
func (e *ExecClassifier) Classify(ctx context.Context, pose []float64) ([]Prediction, error) {
	if len(pose) != detector.VectorLen {
		return nil, detector.ErrVectorLength
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := json.Marshal(execRequest{Pose: pose})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Dir = e.dir
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(req)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("classifier timeout after %s", e.timeout)
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("classifier failed: %w, stderr: %s", err, s)
		}
		return nil, fmt.Errorf("classifier failed: %w", err)
	}

	var preds []Prediction
	if err := json.Unmarshal(stdout.Bytes(), &preds); err != nil {
		return nil, fmt.Errorf("failed to parse classifier output: %w, stdout: %s", err, stdout.String())
	}
	for _, p := range preds {
		if p.Confidence < 0 || p.Confidence > 1 {
			return nil, fmt.Errorf("classifier returned confidence %f for %q", p.Confidence, p.Label)
		}
	}
	return preds, nil
}
