package detector

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

const epsilon = 1e-9

func TestHandLandmarks_Normalize(t *testing.T) {
	t.Run("wrist at origin and unit palm", func(t *testing.T) {
		hand := HandLandmarks{Handedness: "Right", Score: 0.9}
		hand.Points[Wrist] = Point3D{X: 10.0, Y: 20.0, Z: 5.0}
		hand.Points[MiddleMCP] = Point3D{X: 13.0, Y: 24.0, Z: 5.0} // distance = 5.0
		for i := 1; i < NumLandmarks; i++ {
			if i != MiddleMCP {
				hand.Points[i] = Point3D{X: 10.0 + float64(i), Y: 20.0 + float64(i), Z: 5.0}
			}
		}

		normalized := hand.Normalize()

		if d := distance3D(Point3D{}, normalized.Points[Wrist]); d > epsilon {
			t.Errorf("expected wrist at origin, got distance %f", d)
		}
		if d := distance3D(Point3D{}, normalized.Points[MiddleMCP]); math.Abs(d-1.0) > epsilon {
			t.Errorf("expected wrist to middle MCP distance 1.0, got %f", d)
		}
		if normalized.Handedness != "Right" || normalized.Score != 0.9 {
			t.Errorf("metadata not preserved: %s %f", normalized.Handedness, normalized.Score)
		}
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var hand *HandLandmarks
		if hand.Normalize() != nil {
			t.Error("expected nil result for nil input")
		}
	})

	t.Run("zero scale is only translated", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[Wrist] = Point3D{X: 10.0, Y: 20.0, Z: 5.0}
		hand.Points[MiddleMCP] = Point3D{X: 10.0, Y: 20.0, Z: 5.0}
		hand.Points[IndexTip] = Point3D{X: 11.0, Y: 20.0, Z: 5.0}

		normalized := hand.Normalize()

		if math.Abs(normalized.Points[IndexTip].X-1.0) > epsilon {
			t.Errorf("expected index tip X 1.0, got %f", normalized.Points[IndexTip].X)
		}
	})
}

func TestHandLandmarks_Vector(t *testing.T) {
	hand := ThumbsUpLandmarks()

	v := hand.Vector()

	if len(v) != VectorLen {
		t.Fatalf("vector length = %d, want %d", len(v), VectorLen)
	}
	if v[0] != hand.Points[Wrist].X || v[1] != hand.Points[Wrist].Y || v[2] != hand.Points[Wrist].Z {
		t.Errorf("first triple = %v, want wrist %v", v[:3], hand.Points[Wrist])
	}
	tip := hand.Points[PinkyTip]
	if v[60] != tip.X || v[61] != tip.Y || v[62] != tip.Z {
		t.Errorf("last triple = %v, want pinky tip %v", v[60:], tip)
	}

	back, err := FromVector(v)
	if err != nil {
		t.Fatalf("FromVector() error = %v", err)
	}
	if back.Points != hand.Points {
		t.Error("FromVector(Vector()) should restore every point")
	}
}

func TestFromVector_WrongLength(t *testing.T) {
	for _, n := range []int{0, 62, 64} {
		if _, err := FromVector(make([]float64, n)); !errors.Is(err, ErrVectorLength) {
			t.Errorf("len %d: expected ErrVectorLength, got %v", n, err)
		}
	}
}

func TestNormalizeVector(t *testing.T) {
	hand := OpenPalmLandmarks()
	got, err := NormalizeVector(hand.Vector())
	if err != nil {
		t.Fatalf("NormalizeVector() error = %v", err)
	}
	want := hand.Normalize().Vector()
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Fatalf("coordinate %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestParseResponse(t *testing.T) {
	twoHands := `{"hands": [` + handJSON("Right") + `,` + handJSON("Left") + `]}`

	t.Run("truncates to max hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(twoHands), 1)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 || hands[0].Handedness != "Right" {
			t.Fatalf("expected the first hand only, got %+v", hands)
		}
		if hands[0].Points[PinkyTip].X != 20 {
			t.Errorf("pinky tip X = %f, want 20", hands[0].Points[PinkyTip].X)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands": []}`), 1)
		if err != nil || len(hands) != 0 {
			t.Errorf("expected no hands and no error, got %v %v", hands, err)
		}
	})

	t.Run("skips incomplete hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands": [{"points": [{"x":1,"y":1,"z":1}]}]}`), 2)
		if err != nil || len(hands) != 0 {
			t.Errorf("expected incomplete hand to be skipped, got %v %v", hands, err)
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{"error": "model missing"}`), 1); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{hands`), 1); err == nil {
			t.Error("expected error")
		}
	})
}

func handJSON(handedness string) string {
	s := `{"handedness": "` + handedness + `", "score": 0.9, "points": [`
	for i := 0; i < NumLandmarks; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x": ` + strconv.Itoa(i) + `, "y": 0, "z": 0}`
	}
	return s + `]}`
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()
		hands, err := mock.Detect(nil)
		if err != nil || hands != nil {
			t.Errorf("expected nil hands and nil error, got %v %v", hands, err)
		}
	})

	t.Run("returns configured hands and counts calls", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks(), FistLandmarks()})

		hands, _ := mock.Detect(nil)
		mock.Detect(nil)

		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 2 {
			t.Errorf("calls = %d, want 2", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)
		if err != expectedErr || hands != nil {
			t.Errorf("expected %v and nil hands, got %v %v", expectedErr, err, hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresetPoses(t *testing.T) {
	thumbsUp := ThumbsUpLandmarks()
	if thumbsUp.Points[ThumbTip].Y >= thumbsUp.Points[ThumbMCP].Y {
		t.Error("thumbs up: thumb tip should be above thumb MCP")
	}

	palm := OpenPalmLandmarks()
	if ext := palm.Points[MiddleMCP].Y - palm.Points[MiddleTip].Y; ext < 0.2 {
		t.Errorf("open palm: middle finger extension %f, want >= 0.2", ext)
	}

	fist := FistLandmarks()
	if fist.Points[ThumbTip].Y <= thumbsUp.Points[ThumbTip].Y {
		t.Error("fist: thumb should be folded below the thumbs-up thumb tip")
	}
	if ext := fist.Points[IndexMCP].Y - fist.Points[IndexTip].Y; ext > 0.15 {
		t.Errorf("fist: index finger extension %f, want curled", ext)
	}
}

func TestJitter(t *testing.T) {
	base := OpenPalmLandmarks()
	shifted := Jitter(base, func(i int) float64 { return 0.01 })

	if math.Abs(shifted.Points[Wrist].X-base.Points[Wrist].X-0.01) > epsilon {
		t.Errorf("wrist X not shifted: %f", shifted.Points[Wrist].X)
	}
	if base.Points[Wrist].X != 0.5 {
		t.Error("Jitter must not modify its input")
	}
}
