package render

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/ayusman/gesturefall/internal/app"
	"github.com/ayusman/gesturefall/internal/logging"
)

// debug font cell size
const (
	charW = 6
	charH = 16
)

// Controller is what the window reads and drives. *app.App implements it.
type Controller interface {
	State() app.State
	SetEnabled(enabled bool) error
	Retry()
}

// Window is an ebiten.Game showing the falling entities, the health bar and
// the current predictions.
type Window struct {
	ctl    Controller
	width  int
	height int
	state  app.State
	notice string
}

// NewWindow creates a window sized to the game field.
func NewWindow(ctl Controller, width, height int) *Window {
	return &Window{ctl: ctl, width: width, height: height}
}

// Run opens the window and blocks until it is closed.
func Run(w *Window, title string) error {
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(w)
}

// Update polls the app state and handles keys: space toggles predictions,
// R retries after game over and Escape closes the window.
func (w *Window) Update() error {
	w.state = w.ctl.State()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		w.notice = ""
		if err := w.ctl.SetEnabled(!w.state.Enabled); err != nil {
			logging.Warn("failed to toggle predictions", err, nil)
			w.notice = err.Error()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && w.state.Game.Over {
		w.ctl.Retry()
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	snap := w.state.Game

	for _, e := range snap.Entities {
		vector.DrawFilledCircle(screen, float32(e.X), float32(e.Y), float32(e.Radius), SymbolColor(e.Symbol), true)
		ebitenutil.DebugPrintAt(screen, e.Symbol.Glyph(), int(e.X)-charW/2, int(e.Y)-charH/2)
	}

	vector.DrawFilledRect(screen, barX, barY, barMaxW, barHeight, barTrack, false)
	vector.DrawFilledRect(screen, barX, barY, HealthBarWidth(snap.Health), barHeight, BandColor(snap.Band), false)
	ebitenutil.DebugPrintAt(screen, StatusLine(w.state), barX, barY+barHeight+4)
	if w.notice != "" {
		ebitenutil.DebugPrintAt(screen, w.notice, barX, barY+barHeight+4+charH)
	}

	for i, line := range PredictionLines(w.state.Predictions) {
		x := w.width - len(line)*charW - 10
		ebitenutil.DebugPrintAt(screen, line, x, barY+i*charH)
	}

	if snap.Over {
		vector.DrawFilledRect(screen, 0, 0, float32(w.width), float32(w.height), overShade, false)
		lines := OverLines(snap.Stats)
		y := w.height/2 - len(lines)*charH/2
		for i, line := range lines {
			x := w.width/2 - len(line)*charW/2
			ebitenutil.DebugPrintAt(screen, line, x, y+i*charH)
		}
	}
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.width, w.height
}
