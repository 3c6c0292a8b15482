package gesture

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ayusman/gesturefall/internal/detector"
)

// Model is a serializable trained centroid classifier.
type Model struct {
	Labels    []string             `json:"labels"`
	Centroids map[string][]float64 `json:"centroids"`
}

// Validate checks that every label has a full-length centroid.
func (m *Model) Validate() error {
	if m == nil || len(m.Labels) == 0 {
		return fmt.Errorf("model has no labels")
	}
	for _, label := range m.Labels {
		c, ok := m.Centroids[label]
		if !ok {
			return fmt.Errorf("model has no centroid for %q", label)
		}
		if len(c) != detector.VectorLen {
			return fmt.Errorf("centroid for %q has %d values, expected %d", label, len(c), detector.VectorLen)
		}
	}
	return nil
}

// CentroidClassifier averages the normalized poses of each label into a
// centroid and scores inputs by their landmark distance to every centroid.
type CentroidClassifier struct {
	mu    sync.RWMutex
	state State
	model *Model
}

// NewCentroidClassifier returns an untrained classifier.
func NewCentroidClassifier() *CentroidClassifier {
	return &CentroidClassifier{}
}

// State reports where the classifier is in its training lifecycle.
func (c *CentroidClassifier) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Train replaces the model with one built from samples. A failed run leaves
// the previous model, and state, in place.
func (c *CentroidClassifier) Train(samples []Sample) error {
	c.mu.Lock()
	prev := c.state
	c.state = StateTraining
	c.mu.Unlock()

	model, err := buildModel(samples)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = prev
		return err
	}
	c.model = model
	c.state = StateReady
	return nil
}

func buildModel(samples []Sample) (*Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	sums := make(map[string][]float64)
	counts := make(map[string]int)
	for i, s := range samples {
		if s.Label == "" {
			return nil, fmt.Errorf("sample %d has no label", i)
		}
		norm, err := detector.NormalizeVector(s.Pose)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		sum, ok := sums[s.Label]
		if !ok {
			sum = make([]float64, detector.VectorLen)
			sums[s.Label] = sum
		}
		for j, v := range norm {
			sum[j] += v
		}
		counts[s.Label]++
	}

	model := &Model{Centroids: make(map[string][]float64, len(sums))}
	for label, sum := range sums {
		n := float64(counts[label])
		for j := range sum {
			sum[j] /= n
		}
		model.Centroids[label] = sum
		model.Labels = append(model.Labels, label)
	}
	sort.Strings(model.Labels)
	return model, nil
}

// Classify scores every label 1/(1+distance) and normalizes the scores into
// confidences that sum to 1. Predictions come back in label order.
func (c *CentroidClassifier) Classify(ctx context.Context, pose []float64) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()
	if model == nil {
		return nil, ErrNotReady
	}

	norm, err := detector.NormalizeVector(pose)
	if err != nil {
		return nil, err
	}

	preds := make([]Prediction, len(model.Labels))
	var total float64
	for i, label := range model.Labels {
		score := 1.0 / (1.0 + landmarkDistance(norm, model.Centroids[label]))
		preds[i] = Prediction{Label: label, Confidence: score}
		total += score
	}
	for i := range preds {
		preds[i].Confidence /= total
	}
	return preds, nil
}

// Model returns a copy of the trained model.
func (c *CentroidClassifier) Model() (*Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil {
		return nil, ErrNotReady
	}
	out := &Model{
		Labels:    append([]string(nil), c.model.Labels...),
		Centroids: make(map[string][]float64, len(c.model.Centroids)),
	}
	for label, centroid := range c.model.Centroids {
		out.Centroids[label] = append([]float64(nil), centroid...)
	}
	return out, nil
}

// Load installs a previously saved model and marks the classifier ready.
func (c *CentroidClassifier) Load(m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = m
	c.state = StateReady
	return nil
}

// landmarkDistance sums the Euclidean distances between corresponding
// landmarks of two flattened pose vectors.
func landmarkDistance(a, b []float64) float64 {
	n := min(len(a), len(b)) / 3
	var total float64
	for i := 0; i < n; i++ {
		dx := a[3*i] - b[3*i]
		dy := a[3*i+1] - b[3*i+1]
		dz := a[3*i+2] - b[3*i+2]
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total
}
