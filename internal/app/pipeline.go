package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/gesturefall/internal/game"
	"github.com/ayusman/gesturefall/internal/gesture"
	"github.com/ayusman/gesturefall/internal/logging"
	"github.com/ayusman/gesturefall/internal/store"
)

// runPipeline reads one frame per tick at the camera frame rate and feeds it
// through ProcessFrame while predictions are enabled.
func (a *App) runPipeline(stopCh <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = a.settings.Camera.FPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				logging.Warn("error reading frame", err, nil)
				continue
			}

			a.ProcessFrame(ctx, frame, time.Now())
			a.keepJPEG(frame)
			frame.Close()
		}
	}
}

// ProcessFrame runs one pipeline step: detect the first hand, record it when
// training is armed, classify it when the classifier is ready, tick the game
// and publish the resulting state. Detection and classification errors skip
// the frame.
func (a *App) ProcessFrame(ctx context.Context, frame *gocv.Mat, now time.Time) State {
	hands, err := a.detector.Detect(frame)
	if err != nil {
		logging.Warn("error detecting hands", err, nil)
		return a.State()
	}

	var ranked []gesture.Prediction
	var pose []float64
	if len(hands) > 0 {
		pose = hands[0].Vector()

		if _, err := a.session.RecordSample(now, pose); err != nil {
			logging.Warn("error recording training sample", err, nil)
		}

		if a.ClassifierState() == gesture.StateReady {
			preds, err := a.classifier.Classify(ctx, pose)
			if err != nil {
				logging.Warn("error classifying pose", err, nil)
				return a.State()
			}
			ranked = gesture.Rank(preds)
		}
	}

	events := a.game.Tick(now, ranked)
	a.handleEvents(events)

	state := a.buildState(ranked, pose != nil, now)

	a.mu.Lock()
	a.lastPose = pose
	a.lastState = state
	a.mu.Unlock()

	a.publish(state)
	return state
}

func (a *App) handleEvents(events []game.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case game.EventMissed:
			logging.Info("entity missed", logging.Fields{"symbol": ev.Entity.Symbol.Label(), "health": ev.Health})
		case game.EventCleared:
			logging.Info("entity cleared", logging.Fields{"symbol": ev.Entity.Symbol.Label()})
		case game.EventOver:
			a.recordRound(ev.Round)
		}
	}
}

func (a *App) recordRound(r *game.Round) {
	fields := logging.Fields{
		"spawned": r.Spawned,
		"cleared": r.Cleared,
		"missed":  r.Missed,
		"seconds": r.EndedAt.Sub(r.StartedAt).Seconds(),
	}
	logging.Info("game over", fields)

	if a.store == nil {
		return
	}
	rec := &store.Round{
		ID:        uuid.New().String(),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		Spawned:   r.Spawned,
		Cleared:   r.Cleared,
		Missed:    r.Missed,
	}
	if err := a.store.Rounds().Create(rec); err != nil {
		logging.Error("failed to record round", err, fields)
	}
}

// keepJPEG stores the frame for the MJPEG stream.
func (a *App) keepJPEG(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.mu.Lock()
	a.lastJPEG = data
	a.mu.Unlock()
}
