package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrVectorLength is returned when a pose vector does not hold exactly
// NumLandmarks*3 coordinates.
var ErrVectorLength = errors.New("pose vector must hold 63 coordinates")

// Detector is the pose source: it turns one video frame into zero or more hands.
type Detector interface {
	// Detect returns the hands visible in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report. The game tracks one.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Script overrides the mediapipe_service.py lookup when set.
	Script string
}

// DefaultConfig returns the single-hand tracking configuration.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
