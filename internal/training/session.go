// Package training collects labeled pose samples, keeps them in a durable
// store and imports, splits and evaluates datasets for the classifier.
package training

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/gesturefall/internal/detector"
	"github.com/ayusman/gesturefall/internal/gesture"
)

// ErrEmptyLabel is returned when arming without a label.
var ErrEmptyLabel = errors.New("training label is empty")

// Example is one labeled pose, stored and exchanged as {"pose": [...], "label": "..."}.
type Example = gesture.Sample

// Session records samples for a single label while armed. Every recorded
// sample rewrites the whole accumulated set to the store.
type Session struct {
	mu       sync.Mutex
	store    Store
	interval time.Duration

	armed      bool
	label      string
	examples   []Example
	lastRecord time.Time
}

// Status is a point-in-time view of the session.
type Status struct {
	Armed bool   `json:"armed"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// NewSession creates a disarmed session with no samples. interval limits how
// often samples are recorded; zero records every frame.
func NewSession(store Store, interval time.Duration) *Session {
	if interval < 0 {
		interval = 0
	}
	return &Session{store: store, interval: interval}
}

// Arm starts recording samples under label. A blank label leaves the session
// disarmed.
func (s *Session) Arm(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return ErrEmptyLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
	s.label = label
	s.lastRecord = time.Time{}
	return nil
}

// Disarm stops recording. Samples already recorded are kept.
func (s *Session) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
}

// RecordSample appends pose under the armed label and persists the full set.
// It reports whether the sample was taken; a disarmed session or a sample
// inside the rate limit is skipped without error.
func (s *Session) RecordSample(now time.Time, pose []float64) (bool, error) {
	if len(pose) != detector.VectorLen {
		return false, detector.ErrVectorLength
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return false, nil
	}
	if s.interval > 0 && !s.lastRecord.IsZero() && now.Sub(s.lastRecord) < s.interval {
		return false, nil
	}

	s.examples = append(s.examples, Example{
		Pose:  append([]float64(nil), pose...),
		Label: s.label,
	})
	s.lastRecord = now

	if s.store == nil {
		return true, nil
	}
	return true, s.store.Save(s.examples)
}

// Status returns the armed state, label and sample count.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Armed: s.armed, Label: s.label, Count: len(s.examples)}
}

// Armed reports whether samples are being recorded.
func (s *Session) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Examples returns a copy of every recorded sample.
func (s *Session) Examples() []Example {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Example, len(s.examples))
	for i, ex := range s.examples {
		out[i] = Example{Pose: append([]float64(nil), ex.Pose...), Label: ex.Label}
	}
	return out
}
