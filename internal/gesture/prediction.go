// Package gesture classifies pose vectors into gesture labels.
package gesture

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrNotReady is returned by Classify before a model has been trained or loaded.
	ErrNotReady = errors.New("classifier is not trained")
	// ErrNoSamples is returned when training is attempted without data.
	ErrNoSamples = errors.New("no samples provided")
)

// Prediction is one label with the classifier's confidence in [0,1].
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Sample is a labeled pose vector. Its JSON form is the dataset record format.
type Sample struct {
	Pose  []float64 `json:"pose"`
	Label string    `json:"label"`
}

// Classifier maps a 63-float pose vector to predictions. Results are in no
// particular order; callers use Rank.
type Classifier interface {
	Classify(ctx context.Context, pose []float64) ([]Prediction, error)
}

// State is the training lifecycle of a classifier.
type State int

const (
	StateUntrained State = iota
	StateTraining
	StateReady
)

func (s State) String() string {
	switch s {
	case StateTraining:
		return "training"
	case StateReady:
		return "ready"
	default:
		return "untrained"
	}
}

// Trainable is implemented by classifiers that learn from samples in process.
type Trainable interface {
	Classifier
	Train(samples []Sample) error
	State() State
	Model() (*Model, error)
	Load(m *Model) error
}

// Rank sorts predictions by confidence, highest first. Ties keep their
// original order. The input slice is sorted in place and returned.
func Rank(preds []Prediction) []Prediction {
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Confidence > preds[j].Confidence
	})
	return preds
}

// Top returns the highest-confidence label of a ranked list.
func Top(ranked []Prediction) (string, bool) {
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Label, true
}
