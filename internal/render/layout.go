// Package render draws the game in a native window.
package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ayusman/gesturefall/internal/app"
	"github.com/ayusman/gesturefall/internal/game"
	"github.com/ayusman/gesturefall/internal/gesture"
)

const (
	barX      = 10
	barY      = 10
	barHeight = 14
	barMaxW   = 200

	// maxPredictionLines caps the prediction list in the corner.
	maxPredictionLines = 3
)

var (
	background = color.RGBA{R: 20, G: 20, B: 28, A: 255}
	barTrack   = color.RGBA{R: 60, G: 60, B: 70, A: 255}
	overShade  = color.RGBA{R: 0, G: 0, B: 0, A: 160}
)

// BandColor returns the fill color of the health bar for a band.
func BandColor(b game.Band) color.RGBA {
	switch b {
	case game.BandOK:
		return color.RGBA{R: 60, G: 200, B: 80, A: 255}
	case game.BandWarning:
		return color.RGBA{R: 230, G: 200, B: 40, A: 255}
	default:
		return color.RGBA{R: 220, G: 50, B: 50, A: 255}
	}
}

// SymbolColor returns the disc color for an entity symbol.
func SymbolColor(g game.Gesture) color.RGBA {
	switch g {
	case game.Fist:
		return color.RGBA{R: 200, G: 120, B: 60, A: 255}
	case game.ThumbsUp:
		return color.RGBA{R: 80, G: 140, B: 220, A: 255}
	default:
		return color.RGBA{R: 170, G: 90, B: 200, A: 255}
	}
}

// HealthBarWidth scales health to the bar width, clamped to [0, barMaxW].
func HealthBarWidth(health int) float32 {
	if health <= 0 {
		return 0
	}
	if health >= game.MaxHealth {
		return barMaxW
	}
	return float32(health) * barMaxW / float32(game.MaxHealth)
}

// PredictionLines formats the top predictions as "Label: 87%".
func PredictionLines(preds []gesture.Prediction) []string {
	n := len(preds)
	if n > maxPredictionLines {
		n = maxPredictionLines
	}
	lines := make([]string, 0, n)
	for _, p := range preds[:n] {
		lines = append(lines, fmt.Sprintf("%s: %.0f%%", p.Label, p.Confidence*100))
	}
	return lines
}

// StatusLine summarizes the pipeline state under the health bar.
func StatusLine(st app.State) string {
	var b strings.Builder
	if st.Enabled {
		b.WriteString("predictions on")
	} else {
		b.WriteString("predictions off (space)")
	}
	fmt.Fprintf(&b, " | classifier %s", st.Classifier)
	if st.Training.Armed {
		fmt.Fprintf(&b, " | recording %q (%d)", st.Training.Label, st.Training.Count)
	}
	if !st.Hand && st.Enabled {
		b.WriteString(" | no hand")
	}
	return b.String()
}

// OverLines is the banner shown once health reaches zero.
func OverLines(stats game.Stats) []string {
	return []string{
		"GAME OVER",
		fmt.Sprintf("cleared %d  missed %d", stats.Cleared, stats.Missed),
		"press R to retry",
	}
}
