package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/gesturefall/internal/app"
	"github.com/ayusman/gesturefall/internal/gesture"
	"github.com/ayusman/gesturefall/internal/store"
	"github.com/ayusman/gesturefall/internal/training"
)

// fakeController records calls and returns canned results.
type fakeController struct {
	enabled   bool
	retries   int
	enableErr error

	status    training.Status
	data      []training.Example
	importSrc string
	eval      *app.Evaluation
	importErr error
	preds     []gesture.Prediction
	predErr   error

	models  []*store.Model
	samples map[string][]training.Example
	saveErr error
	loadErr error
	loaded  string
	rounds  []*store.Round
	limit   int
}

func (f *fakeController) State() app.State { return app.State{Enabled: f.enabled} }

func (f *fakeController) SetEnabled(enabled bool) error {
	if f.enableErr != nil {
		return f.enableErr
	}
	f.enabled = enabled
	return nil
}

func (f *fakeController) Retry() { f.retries++ }

func (f *fakeController) ArmTraining(label string) error {
	if label == "" {
		return training.ErrEmptyLabel
	}
	f.status = training.Status{Armed: true, Label: label, Count: f.status.Count}
	return nil
}

func (f *fakeController) DisarmTraining()                  { f.status.Armed = false }
func (f *fakeController) TrainingStatus() training.Status  { return f.status }
func (f *fakeController) TrainingData() []training.Example { return f.data }

func (f *fakeController) ImportAndTrain(ctx context.Context, source string) (*app.Evaluation, error) {
	f.importSrc = source
	return f.eval, f.importErr
}

func (f *fakeController) PredictCurrent(ctx context.Context) ([]gesture.Prediction, error) {
	return f.preds, f.predErr
}

func (f *fakeController) SaveModel() (*store.Model, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	m := &store.Model{ID: "m1", Labels: []string{"Fist"}, Data: json.RawMessage(`{}`)}
	f.models = append(f.models, m)
	return m, nil
}

func (f *fakeController) LoadLatestModel() (*store.Model, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &store.Model{ID: "m1", Data: json.RawMessage(`{}`)}, nil
}

func (f *fakeController) Models() ([]*store.Model, error) { return f.models, nil }

func (f *fakeController) find(id string) (int, error) {
	for i, m := range f.models {
		if m.ID == id {
			return i, nil
		}
	}
	return -1, store.ErrNotFound
}

func (f *fakeController) Model(id string) (*store.Model, error) {
	i, err := f.find(id)
	if err != nil {
		return nil, err
	}
	m := *f.models[i]
	return &m, nil
}

func (f *fakeController) LoadModel(id string) (*store.Model, error) {
	m, err := f.Model(id)
	if err != nil {
		return nil, err
	}
	f.loaded = id
	return m, nil
}

func (f *fakeController) ModelSamples(id string) ([]training.Example, error) {
	if _, err := f.find(id); err != nil {
		return nil, err
	}
	return f.samples[id], nil
}

func (f *fakeController) DeleteModel(id string) error {
	i, err := f.find(id)
	if err != nil {
		return err
	}
	f.models = append(f.models[:i], f.models[i+1:]...)
	return nil
}

func (f *fakeController) Rounds(limit int) ([]*store.Round, error) {
	f.limit = limit
	return f.rounds, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestGameHandler(t *testing.T) {
	ctl := &fakeController{}
	h := NewGameHandler(ctl)

	t.Run("get state", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/game", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var st app.State
		decode(t, rec, &st)
	})

	t.Run("enable", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/game/enable", `{"enabled": true}`)
		if rec.Code != http.StatusOK || !ctl.enabled {
			t.Fatalf("status = %d, enabled = %v", rec.Code, ctl.enabled)
		}
		var st app.State
		decode(t, rec, &st)
		if !st.Enabled {
			t.Error("response should report enabled")
		}
	})

	t.Run("enable requires the field", func(t *testing.T) {
		if rec := do(t, h, http.MethodPost, "/api/game/enable", `{}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if rec := do(t, h, http.MethodPost, "/api/game/enable", `{bad`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("camera unavailable", func(t *testing.T) {
		ctl := &fakeController{enableErr: fmt.Errorf("%w: no device", app.ErrCameraUnavailable)}
		rec := do(t, NewGameHandler(ctl), http.MethodPost, "/api/game/enable", `{"enabled": true}`)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("retry", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/game/retry", "")
		if rec.Code != http.StatusOK || ctl.retries != 1 {
			t.Errorf("status = %d, retries = %d", rec.Code, ctl.retries)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		cases := []struct{ method, path string }{
			{http.MethodPost, "/api/game"},
			{http.MethodGet, "/api/game/enable"},
			{http.MethodGet, "/api/game/retry"},
		}
		for _, c := range cases {
			if rec := do(t, h, c.method, c.path, ""); rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s: status = %d, want 405", c.method, c.path, rec.Code)
			}
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		if rec := do(t, h, http.MethodPost, "/api/game/pause", ""); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestTrainingHandler_ArmDisarm(t *testing.T) {
	ctl := &fakeController{}
	h := NewTrainingHandler(ctl)

	rec := do(t, h, http.MethodPost, "/api/training/arm", `{"label": "Fist"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("arm status = %d", rec.Code)
	}
	var st training.Status
	decode(t, rec, &st)
	if !st.Armed || st.Label != "Fist" {
		t.Errorf("status = %+v", st)
	}

	rec = do(t, h, http.MethodPost, "/api/training/arm", `{"label": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty label status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/training/disarm", "")
	if rec.Code != http.StatusOK || ctl.status.Armed {
		t.Errorf("disarm status = %d, armed = %v", rec.Code, ctl.status.Armed)
	}

	rec = do(t, h, http.MethodGet, "/api/training", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTrainingHandler_Data(t *testing.T) {
	ctl := &fakeController{}
	h := NewTrainingHandler(ctl)

	rec := do(t, h, http.MethodGet, "/api/training/data", "")
	var empty []training.Example
	decode(t, rec, &empty)
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected an empty array, got %v", empty)
	}

	ctl.data = []training.Example{{Pose: []float64{1, 2}, Label: "HandUp"}}
	rec = do(t, h, http.MethodGet, "/api/training/data", "")
	var got []training.Example
	decode(t, rec, &got)
	if len(got) != 1 || got[0].Label != "HandUp" {
		t.Errorf("data = %+v", got)
	}
}

func TestTrainingHandler_Import(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantSource string
	}{
		{"explicit source", `{"source": "http://example.test/nnData.json"}`, nil, http.StatusOK, "http://example.test/nnData.json"},
		{"default source", "", nil, http.StatusOK, ""},
		{"fetch failure", `{"source": "http://x"}`, fmt.Errorf("%w: 404", training.ErrFetch), http.StatusBadGateway, "http://x"},
		{"missing file", `{"source": "none.json"}`, fmt.Errorf("%w: open none.json: no such file or directory", training.ErrFetch), http.StatusBadGateway, "none.json"},
		{"source outside the data dir", `{"source": "/etc/passwd"}`, fmt.Errorf("%w: %q", training.ErrSourceNotAllowed, "/etc/passwd"), http.StatusBadRequest, "/etc/passwd"},
		{"malformed dataset", `{"source": "bad.json"}`, fmt.Errorf("decode: %w", &json.SyntaxError{}), http.StatusUnprocessableEntity, "bad.json"},
		{"not trainable", `{}`, app.ErrNotTrainable, http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{
				eval:      &app.Evaluation{Train: 80, Test: 19, Accuracy: 94.7, Evaluated: true},
				importErr: tt.err,
			}
			rec := do(t, NewTrainingHandler(ctl), http.MethodPost, "/api/training/import", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if ctl.importSrc != tt.wantSource {
				t.Errorf("source = %q, want %q", ctl.importSrc, tt.wantSource)
			}
			if tt.err == nil {
				var eval app.Evaluation
				decode(t, rec, &eval)
				if eval.Train != 80 || eval.Test != 19 {
					t.Errorf("eval = %+v", eval)
				}
			}
		})
	}
}

func TestTrainingHandler_Predict(t *testing.T) {
	ctl := &fakeController{predErr: app.ErrNoHand}
	h := NewTrainingHandler(ctl)

	if rec := do(t, h, http.MethodPost, "/api/training/predict", ""); rec.Code != http.StatusConflict {
		t.Errorf("no hand status = %d, want 409", rec.Code)
	}

	ctl.predErr = nil
	ctl.preds = []gesture.Prediction{{Label: "Fist", Confidence: 0.8}}
	rec := do(t, h, http.MethodPost, "/api/training/predict", "")
	var resp predictResponse
	decode(t, rec, &resp)
	if len(resp.Predictions) != 1 || resp.Predictions[0].Label != "Fist" {
		t.Errorf("predictions = %+v", resp.Predictions)
	}
}

func TestTrainingHandler_MethodNotAllowed(t *testing.T) {
	h := NewTrainingHandler(&fakeController{})
	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/training"},
		{http.MethodGet, "/api/training/arm"},
		{http.MethodDelete, "/api/training/data"},
		{http.MethodGet, "/api/training/import"},
	}
	for _, c := range cases {
		if rec := do(t, h, c.method, c.path, ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want 405", c.method, c.path, rec.Code)
		}
	}
}

func TestModelsHandler(t *testing.T) {
	ctl := &fakeController{}
	h := NewModelsHandler(ctl)

	rec := do(t, h, http.MethodGet, "/api/models", "")
	var list listModelsResponse
	decode(t, rec, &list)
	if list.Models == nil || len(list.Models) != 0 {
		t.Errorf("expected an empty list, got %v", list.Models)
	}

	rec = do(t, h, http.MethodPost, "/api/models", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d", rec.Code)
	}
	var saved map[string]interface{}
	decode(t, rec, &saved)
	if saved["id"] != "m1" {
		t.Errorf("saved = %v", saved)
	}
	if _, ok := saved["data"]; ok {
		t.Error("model data should not be returned")
	}

	rec = do(t, h, http.MethodPost, "/api/models/latest/load", "")
	if rec.Code != http.StatusOK {
		t.Errorf("load status = %d", rec.Code)
	}

	t.Run("errors", func(t *testing.T) {
		ctl := &fakeController{saveErr: gesture.ErrNotReady, loadErr: store.ErrNotFound}
		h := NewModelsHandler(ctl)
		if rec := do(t, h, http.MethodPost, "/api/models", ""); rec.Code != http.StatusConflict {
			t.Errorf("save untrained status = %d, want 409", rec.Code)
		}
		if rec := do(t, h, http.MethodPost, "/api/models/latest/load", ""); rec.Code != http.StatusNotFound {
			t.Errorf("load empty status = %d, want 404", rec.Code)
		}
		if rec := do(t, h, http.MethodDelete, "/api/models", ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("delete status = %d, want 405", rec.Code)
		}
	})
}

func TestModelsHandler_ByID(t *testing.T) {
	ctl := &fakeController{
		models: []*store.Model{
			{ID: "a", Labels: []string{"Fist"}, Data: json.RawMessage(`{}`), SampleCount: 2},
			{ID: "b", Labels: []string{"Fist"}, Data: json.RawMessage(`{}`)},
		},
		samples: map[string][]training.Example{
			"a": {{Pose: []float64{1}, Label: "Fist"}, {Pose: []float64{2}, Label: "Fist"}},
		},
	}
	h := NewModelsHandler(ctl)

	t.Run("get", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/models/a", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got map[string]interface{}
		decode(t, rec, &got)
		if got["id"] != "a" || got["sample_count"] != float64(2) {
			t.Errorf("model = %v", got)
		}
		if _, ok := got["data"]; ok {
			t.Error("model data should not be returned")
		}
	})

	t.Run("samples", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/models/a/samples", "")
		var got []training.Example
		decode(t, rec, &got)
		if len(got) != 2 || got[1].Pose[0] != 2 {
			t.Errorf("samples = %+v", got)
		}

		rec = do(t, h, http.MethodGet, "/api/models/b/samples", "")
		var empty []training.Example
		decode(t, rec, &empty)
		if empty == nil || len(empty) != 0 {
			t.Errorf("expected an empty array, got %v", empty)
		}
	})

	t.Run("load", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/models/b/load", "")
		if rec.Code != http.StatusOK || ctl.loaded != "b" {
			t.Errorf("status = %d, loaded = %q", rec.Code, ctl.loaded)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/api/models/a", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if rec := do(t, h, http.MethodGet, "/api/models/a", ""); rec.Code != http.StatusNotFound {
			t.Errorf("get after delete status = %d, want 404", rec.Code)
		}
		if rec := do(t, h, http.MethodDelete, "/api/models/a", ""); rec.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", rec.Code)
		}
	})

	t.Run("routing errors", func(t *testing.T) {
		cases := []struct {
			method, path string
			want         int
		}{
			{http.MethodPost, "/api/models/b", http.StatusMethodNotAllowed},
			{http.MethodGet, "/api/models/b/load", http.StatusMethodNotAllowed},
			{http.MethodPost, "/api/models/b/samples", http.StatusMethodNotAllowed},
			{http.MethodGet, "/api/models/b/other", http.StatusNotFound},
			{http.MethodGet, "/api/models/missing/samples", http.StatusNotFound},
		}
		for _, c := range cases {
			if rec := do(t, h, c.method, c.path, ""); rec.Code != c.want {
				t.Errorf("%s %s: status = %d, want %d", c.method, c.path, rec.Code, c.want)
			}
		}
	})
}

func TestRoundsHandler(t *testing.T) {
	ctl := &fakeController{rounds: []*store.Round{{ID: "r1", Missed: 10}}}
	h := NewRoundsHandler(ctl)

	rec := do(t, h, http.MethodGet, "/api/rounds?limit=5", "")
	var resp listRoundsResponse
	decode(t, rec, &resp)
	if len(resp.Rounds) != 1 || ctl.limit != 5 {
		t.Errorf("rounds = %d, limit = %d", len(resp.Rounds), ctl.limit)
	}

	if rec := do(t, h, http.MethodGet, "/api/rounds?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/rounds", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("post status = %d, want 405", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{training.ErrEmptyLabel, http.StatusBadRequest},
		{training.ErrSourceNotAllowed, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{gesture.ErrNotReady, http.StatusConflict},
		{app.ErrNoStore, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", training.ErrFetch), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
