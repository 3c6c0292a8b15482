package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/gesturefall/internal/gesture"
	"github.com/ayusman/gesturefall/internal/training"
)

// importTimeout bounds a dataset import, including the fetch and training.
const importTimeout = 2 * time.Minute

// TrainingHandler serves /api/training and its actions.
type TrainingHandler struct {
	ctl Controller
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(ctl Controller) *TrainingHandler {
	return &TrainingHandler{ctl: ctl}
}

type armRequest struct {
	Label string `json:"label"`
}

type importRequest struct {
	Source string `json:"source"`
}

type predictResponse struct {
	Predictions []gesture.Prediction `json:"predictions"`
}

func (h *TrainingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/training or /api/training/{action}
	action := strings.TrimPrefix(r.URL.Path, "/api/training")
	action = strings.Trim(action, "/")

	method := http.MethodPost
	if action == "" || action == "data" {
		method = http.MethodGet
	}
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "":
		writeJSON(w, http.StatusOK, h.ctl.TrainingStatus())
	case "arm":
		h.arm(w, r)
	case "disarm":
		h.ctl.DisarmTraining()
		writeJSON(w, http.StatusOK, h.ctl.TrainingStatus())
	case "data":
		data := h.ctl.TrainingData()
		if data == nil {
			data = []training.Example{}
		}
		w.Header().Set("Content-Disposition", `attachment; filename="training.json"`)
		writeJSON(w, http.StatusOK, data)
	case "import":
		h.importDataset(w, r)
	case "predict":
		preds, err := h.ctl.PredictCurrent(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, predictResponse{Predictions: preds})
	default:
		http.NotFound(w, r)
	}
}

func (h *TrainingHandler) arm(w http.ResponseWriter, r *http.Request) {
	var req armRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.ctl.ArmTraining(req.Label); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.TrainingStatus())
}

// importDataset handles POST /api/training/import. An empty body or source
// imports the configured dataset.
func (h *TrainingHandler) importDataset(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), importTimeout)
	defer cancel()

	eval, err := h.ctl.ImportAndTrain(ctx, req.Source)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}
