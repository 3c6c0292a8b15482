// Package detector turns camera frames into hand landmarks and pose vectors.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21

	// VectorLen is the length of a flattened pose vector.
	VectorLen = NumLandmarks * 3
)

// Point3D is a single landmark coordinate.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Vector flattens the landmarks into x0,y0,z0,x1,y1,z1,... order, the
// classifier input format.
func (h *HandLandmarks) Vector() []float64 {
	v := make([]float64, 0, VectorLen)
	for _, p := range h.Points {
		v = append(v, p.X, p.Y, p.Z)
	}
	return v
}

// FromVector rebuilds landmarks from a flattened pose vector.
func FromVector(v []float64) (HandLandmarks, error) {
	var h HandLandmarks
	if len(v) != VectorLen {
		return h, ErrVectorLength
	}
	for i := range h.Points {
		h.Points[i] = Point3D{X: v[3*i], Y: v[3*i+1], Z: v[3*i+2]}
	}
	return h, nil
}

func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Normalize returns a copy translated so the wrist is at the origin and scaled
// so the wrist to middle-MCP distance is 1. A degenerate hand (zero scale) is
// only translated.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	out := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	for i, p := range h.Points {
		out.Points[i] = Point3D{X: p.X - wrist.X, Y: p.Y - wrist.Y, Z: p.Z - wrist.Z}
	}

	scale := distance3D(Point3D{}, out.Points[MiddleMCP])
	if scale < 1e-10 {
		return out
	}
	for i := range out.Points {
		out.Points[i].X /= scale
		out.Points[i].Y /= scale
		out.Points[i].Z /= scale
	}
	return out
}

// NormalizeVector normalizes a flattened pose vector the same way as Normalize.
func NormalizeVector(v []float64) ([]float64, error) {
	h, err := FromVector(v)
	if err != nil {
		return nil, err
	}
	return h.Normalize().Vector(), nil
}
