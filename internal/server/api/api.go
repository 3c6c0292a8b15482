// Package api provides the HTTP handlers for game control, training and
// saved models.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/gesturefall/internal/app"
	"github.com/ayusman/gesturefall/internal/gesture"
	"github.com/ayusman/gesturefall/internal/logging"
	"github.com/ayusman/gesturefall/internal/store"
	"github.com/ayusman/gesturefall/internal/training"
)

// Controller is the application surface the handlers drive. *app.App
// implements it.
type Controller interface {
	State() app.State
	SetEnabled(enabled bool) error
	Retry()

	ArmTraining(label string) error
	DisarmTraining()
	TrainingStatus() training.Status
	TrainingData() []training.Example
	ImportAndTrain(ctx context.Context, source string) (*app.Evaluation, error)
	PredictCurrent(ctx context.Context) ([]gesture.Prediction, error)

	SaveModel() (*store.Model, error)
	LoadLatestModel() (*store.Model, error)
	LoadModel(id string) (*store.Model, error)
	Models() ([]*store.Model, error)
	Model(id string) (*store.Model, error)
	ModelSamples(id string) ([]training.Example, error)
	DeleteModel(id string) error
	Rounds(limit int) ([]*store.Round, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeErr maps a controller error to a status code.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error("request failed", err, logging.Fields{"method": r.Method, "path": r.URL.Path})
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, training.ErrEmptyLabel), errors.Is(err, training.ErrSourceNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNoHand),
		errors.Is(err, gesture.ErrNotReady),
		errors.Is(err, gesture.ErrNoSamples),
		errors.Is(err, app.ErrNotTrainable):
		return http.StatusConflict
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, training.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrCameraUnavailable), errors.Is(err, app.ErrNoStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}
