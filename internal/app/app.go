// Package app wires the camera, hand detector, classifier, game loop and
// training session into one frame pipeline.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gesturefall/internal/capture"
	"github.com/ayusman/gesturefall/internal/config"
	"github.com/ayusman/gesturefall/internal/detector"
	"github.com/ayusman/gesturefall/internal/game"
	"github.com/ayusman/gesturefall/internal/gesture"
	"github.com/ayusman/gesturefall/internal/logging"
	"github.com/ayusman/gesturefall/internal/store"
	"github.com/ayusman/gesturefall/internal/training"
)

var (
	// ErrCameraUnavailable is returned when predictions are enabled but the
	// camera failed to open at startup.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrNoHand is returned by PredictCurrent when the last frame had no hand.
	ErrNoHand = errors.New("no hand in the last frame")
	// ErrNotTrainable is returned when the configured classifier cannot be
	// trained or saved in process.
	ErrNotTrainable = errors.New("classifier cannot be trained in process")
	// ErrNoStore is returned by operations that need the database.
	ErrNoStore = errors.New("no store configured")
)

// Config holds the collaborators of the application. Nil collaborators are
// built from Settings.
type Config struct {
	Settings      *config.Config
	Store         *store.Store
	Camera        capture.Camera
	Detector      detector.Detector
	Classifier    gesture.Classifier
	TrainingStore training.Store
	Rand          *rand.Rand
}

// Evaluation reports one import-and-train run.
type Evaluation struct {
	Train     int     `json:"train"`
	Test      int     `json:"test"`
	Accuracy  float64 `json:"accuracy"`
	Evaluated bool    `json:"evaluated"`
}

// State is the snapshot published after every processed frame.
type State struct {
	Enabled     bool                 `json:"enabled"`
	Hand        bool                 `json:"hand"`
	Predictions []gesture.Prediction `json:"predictions"`
	Game        game.Snapshot        `json:"game"`
	Training    training.Status      `json:"training"`
	Classifier  string               `json:"classifier"`
	Time        time.Time            `json:"time"`
}

// App is the main application that runs the frame pipeline and exposes the
// game and training operations to the front-ends.
type App struct {
	settings   *config.Config
	store      *store.Store
	camera     capture.Camera
	detector   detector.Detector
	classifier gesture.Classifier
	trainable  gesture.Trainable
	game       *game.Loop
	session    *training.Session
	rng        *rand.Rand

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	cameraErr error
	lastPose  []float64
	lastState State
	lastJPEG  []byte
	lastTrain []training.Example
	lastEval  *Evaluation

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// New creates an App. The camera is not opened until Start.
func New(cfg Config) *App {
	settings := cfg.Settings
	if settings == nil {
		def := config.Default()
		settings = &def
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	a := &App{
		settings:   settings,
		store:      cfg.Store,
		camera:     cfg.Camera,
		detector:   cfg.Detector,
		classifier: cfg.Classifier,
		rng:        rng,
		subs:       make(map[int]chan State),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Options{
			Device: settings.Camera.Device,
			Width:  settings.Camera.Width,
			Height: settings.Camera.Height,
			FPS:    settings.Camera.FPS,
		})
	}

	// Try MediaPipe first, fall back to the mock detector
	if a.detector == nil {
		dcfg := detector.DefaultConfig()
		dcfg.MaxHands = settings.Detector.MaxHands
		if mp, err := detector.NewMediaPipeDetector(dcfg); err == nil {
			a.detector = mp
			logging.Info("using MediaPipe hand detection", nil)
		} else {
			logging.Warn("MediaPipe not available, using mock detector", err, nil)
			a.detector = detector.NewMockDetector()
		}
	}

	if a.classifier == nil {
		a.classifier = newClassifier(settings.Classifier)
	}
	a.trainable, _ = a.classifier.(gesture.Trainable)

	a.game = game.NewLoop(game.Options{
		Width:          float64(settings.Game.Width),
		Height:         float64(settings.Game.Height),
		SpawnInterval:  time.Duration(settings.Game.SpawnIntervalMs) * time.Millisecond,
		Debounce:       time.Duration(settings.Game.DebounceMs) * time.Millisecond,
		ClearOnRestart: settings.Game.ClearOnRestart,
		Rand:           rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())),
	})

	trainingStore := cfg.TrainingStore
	if trainingStore == nil {
		trainingStore = openTrainingStore(settings.Training.AppName)
	}
	a.session = training.NewSession(trainingStore, time.Duration(settings.Training.SampleIntervalMs)*time.Millisecond)

	a.lastState = a.buildState(nil, false, time.Now())
	return a
}

func newClassifier(cfg config.ClassifierConfig) gesture.Classifier {
	if cfg.Kind == config.ClassifierExec {
		return gesture.NewExecClassifier(cfg.Command, nil, "", time.Duration(cfg.TimeoutMs)*time.Millisecond)
	}
	return gesture.NewCentroidClassifier()
}

// openTrainingStore prefers the per-user data directory and falls back to
// memory when it cannot be opened.
func openTrainingStore(appName string) training.Store {
	st, err := training.NewGdataStore(appName)
	if err != nil {
		logging.Warn("training data will not persist", err, logging.Fields{"app": appName})
		return training.NewMemoryStore()
	}
	return st
}

// Start opens the camera and starts the frame pipeline. A camera that fails
// to open is logged once and predictions stay disabled; Start does not retry.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil || a.cameraErr != nil {
		return a.cameraErr
	}

	if err := a.camera.Open(); err != nil {
		a.cameraErr = fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		a.enabled = false
		logging.Error("camera unavailable, predictions disabled", err, logging.Fields{"device": a.settings.Camera.Device})
		return a.cameraErr
	}

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	logging.Info("frame pipeline started", logging.Fields{"fps": a.camera.FPS()})
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		logging.Warn("error closing camera", err, nil)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			logging.Warn("error closing detector", err, nil)
		}
	}

	a.subMu.Lock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.subMu.Unlock()

	logging.Info("frame pipeline stopped", nil)
}

// SetEnabled turns predictions on or off. Enabling starts the game, spawning
// the first entity when the field is empty; disabling pauses it.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	if enabled && a.cameraErr != nil {
		err := a.cameraErr
		a.mu.Unlock()
		return err
	}
	a.enabled = enabled
	a.mu.Unlock()

	if enabled {
		a.game.Start(time.Now())
	} else {
		a.game.Stop()
	}
	a.publish(a.refreshState())
	return nil
}

// IsEnabled returns whether predictions are running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Retry restarts the game at full health.
func (a *App) Retry() {
	a.game.Restart(time.Now())
	logging.Info("game restarted", nil)
	a.publish(a.refreshState())
}

// ArmTraining starts recording samples under label.
func (a *App) ArmTraining(label string) error {
	if err := a.session.Arm(label); err != nil {
		return err
	}
	logging.Info("training armed", logging.Fields{"label": label})
	return nil
}

// DisarmTraining stops recording samples.
func (a *App) DisarmTraining() {
	a.session.Disarm()
	logging.Info("training disarmed", logging.Fields{"samples": a.session.Status().Count})
}

// TrainingStatus reports the session state.
func (a *App) TrainingStatus() training.Status {
	return a.session.Status()
}

// TrainingData returns every sample recorded this session.
func (a *App) TrainingData() []training.Example {
	return a.session.Examples()
}

// ImportAndTrain loads a dataset, splits it 80/20, trains the classifier on
// the first part and evaluates it on the second. An empty source uses the
// configured dataset; other sources must be relative paths under the data or
// static directory.
func (a *App) ImportAndTrain(ctx context.Context, source string) (*Evaluation, error) {
	if a.trainable == nil {
		return nil, ErrNotTrainable
	}
	resolved, err := a.datasetSources().Resolve(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, source)
	}
	source = resolved

	examples, err := training.LoadDataset(ctx, source)
	if err != nil {
		logging.Error("failed to load dataset", err, logging.Fields{"source": source})
		return nil, err
	}

	a.mu.Lock()
	train, test := training.SplitDataset(examples, a.rng)
	a.mu.Unlock()

	if err := a.trainable.Train(train); err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}

	eval := &Evaluation{Train: len(train), Test: len(test)}
	acc, err := training.Evaluate(ctx, test, a.classifier)
	switch {
	case errors.Is(err, training.ErrNoTestData):
		logging.Warn("no test data, accuracy not measured", nil, logging.Fields{"source": source})
	case err != nil:
		return nil, err
	default:
		eval.Accuracy = acc
		eval.Evaluated = true
	}

	a.mu.Lock()
	a.lastTrain = train
	a.lastEval = eval
	a.mu.Unlock()

	logging.Info("classifier trained", logging.Fields{
		"source":   source,
		"train":    eval.Train,
		"test":     eval.Test,
		"accuracy": fmt.Sprintf("%.2f%%", eval.Accuracy),
	})
	return eval, nil
}

// datasetSources allows the configured dataset and relative paths under the
// data and static directories.
func (a *App) datasetSources() training.SourcePolicy {
	return training.SourcePolicy{
		Default: a.settings.Training.Dataset,
		Roots:   []string{a.settings.DataDir, a.settings.Server.StaticDir},
	}
}

// PredictCurrent classifies the pose from the most recent frame.
func (a *App) PredictCurrent(ctx context.Context) ([]gesture.Prediction, error) {
	a.mu.RLock()
	pose := a.lastPose
	a.mu.RUnlock()

	if pose == nil {
		return nil, ErrNoHand
	}
	preds, err := a.classifier.Classify(ctx, pose)
	if err != nil {
		return nil, err
	}
	return gesture.Rank(preds), nil
}

// SaveModel stores the trained classifier together with its training samples
// and last evaluation.
func (a *App) SaveModel() (*store.Model, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	if a.trainable == nil {
		return nil, ErrNotTrainable
	}

	m, err := a.trainable.Model()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}

	a.mu.RLock()
	train := a.lastTrain
	eval := a.lastEval
	a.mu.RUnlock()

	rec := &store.Model{
		ID:     uuid.New().String(),
		Labels: m.Labels,
		Data:   data,
	}
	if eval != nil {
		rec.TrainSize = eval.Train
		rec.TestSize = eval.Test
		rec.Accuracy = eval.Accuracy
	}

	samples := make([]json.RawMessage, 0, len(train))
	for _, ex := range train {
		b, err := json.Marshal(ex)
		if err != nil {
			return nil, fmt.Errorf("encode sample: %w", err)
		}
		samples = append(samples, b)
	}
	if err := a.store.Models().Create(rec, samples...); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	logging.Info("model saved", logging.Fields{"id": rec.ID, "labels": rec.Labels, "samples": rec.SampleCount})
	return rec, nil
}

// LoadLatestModel loads the most recently saved model into the classifier.
func (a *App) LoadLatestModel() (*store.Model, error) {
	if err := a.checkModelStore(); err != nil {
		return nil, err
	}
	rec, err := a.store.Models().Latest()
	if err != nil {
		return nil, err
	}
	if err := a.loadRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LoadModel loads the saved model with the given id into the classifier.
func (a *App) LoadModel(id string) (*store.Model, error) {
	if err := a.checkModelStore(); err != nil {
		return nil, err
	}
	rec, err := a.store.Models().GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := a.loadRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *App) checkModelStore() error {
	if a.store == nil {
		return ErrNoStore
	}
	if a.trainable == nil {
		return ErrNotTrainable
	}
	return nil
}

func (a *App) loadRecord(rec *store.Model) error {
	var m gesture.Model
	if err := json.Unmarshal(rec.Data, &m); err != nil {
		return fmt.Errorf("decode model %s: %w", rec.ID, err)
	}
	if err := a.trainable.Load(&m); err != nil {
		return fmt.Errorf("load model %s: %w", rec.ID, err)
	}
	if err := a.countSamples(rec); err != nil {
		return err
	}

	logging.Info("model loaded", logging.Fields{"id": rec.ID, "labels": rec.Labels})
	return nil
}

func (a *App) countSamples(rec *store.Model) error {
	n, err := a.store.Samples().Count(rec.ID)
	if err != nil {
		return fmt.Errorf("count samples of %s: %w", rec.ID, err)
	}
	rec.SampleCount = n
	return nil
}

// Models lists saved models, newest first, with their sample counts.
func (a *App) Models() ([]*store.Model, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	models, err := a.store.Models().List()
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if err := a.countSamples(m); err != nil {
			return nil, err
		}
	}
	return models, nil
}

// Model returns one saved model with its sample count.
func (a *App) Model(id string) (*store.Model, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	m, err := a.store.Models().GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := a.countSamples(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ModelSamples returns the training examples a saved model was built from.
func (a *App) ModelSamples(id string) ([]training.Example, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	if _, err := a.store.Models().GetByID(id); err != nil {
		return nil, err
	}
	rows, err := a.store.Samples().GetByModelID(id)
	if err != nil {
		return nil, err
	}
	examples := make([]training.Example, 0, len(rows))
	for _, row := range rows {
		var ex training.Example
		if err := json.Unmarshal(row.Data, &ex); err != nil {
			return nil, fmt.Errorf("decode sample %d of %s: %w", row.SampleIndex, id, err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

// DeleteModel removes a saved model and its samples.
func (a *App) DeleteModel(id string) error {
	if a.store == nil {
		return ErrNoStore
	}
	if err := a.store.Models().Delete(id); err != nil {
		return err
	}
	logging.Info("model deleted", logging.Fields{"id": id})
	return nil
}

// Rounds lists finished games, newest first.
func (a *App) Rounds(limit int) ([]*store.Round, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	return a.store.Rounds().List(limit)
}

// ClassifierState reports the classifier lifecycle. Classifiers that cannot
// be trained in process are always ready.
func (a *App) ClassifierState() gesture.State {
	if a.trainable == nil {
		return gesture.StateReady
	}
	return a.trainable.State()
}

// State returns the last published state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastState
}

// LatestJPEG returns the last camera frame encoded as JPEG, or nil.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastJPEG
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Subscribe returns a channel receiving every published state and a cancel
// function. Slow subscribers miss states rather than stall the pipeline.
func (a *App) Subscribe() (<-chan State, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan State, 4)
	a.subs[id] = ch

	return ch, func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		if c, ok := a.subs[id]; ok {
			close(c)
			delete(a.subs, id)
		}
	}
}

func (a *App) publish(s State) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// refreshState rebuilds the state with the last frame's predictions.
func (a *App) refreshState() State {
	a.mu.RLock()
	preds := a.lastState.Predictions
	hand := a.lastState.Hand
	a.mu.RUnlock()

	s := a.buildState(preds, hand, time.Now())
	a.mu.Lock()
	a.lastState = s
	a.mu.Unlock()
	return s
}

func (a *App) buildState(preds []gesture.Prediction, hand bool, now time.Time) State {
	if preds == nil {
		preds = []gesture.Prediction{}
	}
	return State{
		Enabled:     a.IsEnabled(),
		Hand:        hand,
		Predictions: preds,
		Game:        a.game.Snapshot(),
		Training:    a.session.Status(),
		Classifier:  a.ClassifierState().String(),
		Time:        now,
	}
}
