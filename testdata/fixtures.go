// Package testdata builds hand poses, datasets and frames for tests.
package testdata

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturefall/internal/detector"
	"github.com/ayusman/gesturefall/internal/game"
	"github.com/ayusman/gesturefall/internal/gesture"
)

// Hand returns the preset pose for a playable gesture.
func Hand(g game.Gesture) detector.HandLandmarks {
	switch g {
	case game.Fist:
		return detector.FistLandmarks()
	case game.ThumbsUp:
		return detector.ThumbsUpLandmarks()
	default:
		return detector.OpenPalmLandmarks()
	}
}

// Dataset returns perLabel examples of every playable gesture. With a nil rng
// the examples are exact presets; otherwise each coordinate is shifted by up
// to ±jitter.
func Dataset(perLabel int, jitter float64, rng *rand.Rand) []gesture.Sample {
	var out []gesture.Sample
	for _, g := range game.Gestures() {
		for i := 0; i < perLabel; i++ {
			hand := Hand(g)
			if rng != nil {
				hand = detector.Jitter(hand, func(int) float64 {
					return (rng.Float64()*2 - 1) * jitter
				})
			}
			out = append(out, gesture.Sample{Pose: hand.Vector(), Label: g.Label()})
		}
	}
	return out
}

// WriteDataset writes examples in the dataset file format.
func WriteDataset(path string, examples []gesture.Sample) error {
	data, err := json.Marshal(examples)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Frame returns a black BGR frame of the given size.
func Frame(width, height int) *gocv.Mat {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	return &m
}
