package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/gesturefall/internal/store"
	"github.com/ayusman/gesturefall/internal/training"
)

// ModelsHandler serves saved models:
//
//	GET    /api/models              list
//	POST   /api/models              save the current classifier
//	POST   /api/models/latest/load  load the newest model
//	GET    /api/models/{id}         one model
//	DELETE /api/models/{id}         delete a model and its samples
//	GET    /api/models/{id}/samples the examples it was trained on
//	POST   /api/models/{id}/load    load it into the classifier
type ModelsHandler struct {
	ctl Controller
}

// NewModelsHandler creates a new ModelsHandler.
func NewModelsHandler(ctl Controller) *ModelsHandler {
	return &ModelsHandler{ctl: ctl}
}

type listModelsResponse struct {
	Models []*store.Model `json:"models"`
}

func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/models")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.save(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "load":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.load(w, r, id)
	case len(parts) == 2 && parts[1] == "samples":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.samples(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// list handles GET /api/models.
func (h *ModelsHandler) list(w http.ResponseWriter, r *http.Request) {
	models, err := h.ctl.Models()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if models == nil {
		models = []*store.Model{}
	}
	writeJSON(w, http.StatusOK, listModelsResponse{Models: models})
}

// save handles POST /api/models and stores the current classifier.
func (h *ModelsHandler) save(w http.ResponseWriter, r *http.Request) {
	m, err := h.ctl.SaveModel()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	m.Data = nil
	writeJSON(w, http.StatusCreated, m)
}

func (h *ModelsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.ctl.Model(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	m.Data = nil
	writeJSON(w, http.StatusOK, m)
}

func (h *ModelsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.ctl.DeleteModel(id); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load handles POST /api/models/{id}/load; the id "latest" picks the newest.
func (h *ModelsHandler) load(w http.ResponseWriter, r *http.Request, id string) {
	var m *store.Model
	var err error
	if id == "latest" {
		m, err = h.ctl.LoadLatestModel()
	} else {
		m, err = h.ctl.LoadModel(id)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	m.Data = nil
	writeJSON(w, http.StatusOK, m)
}

// samples exports a model's training examples in the dataset file format.
func (h *ModelsHandler) samples(w http.ResponseWriter, r *http.Request, id string) {
	examples, err := h.ctl.ModelSamples(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if examples == nil {
		examples = []training.Example{}
	}
	w.Header().Set("Content-Disposition", `attachment; filename="samples.json"`)
	writeJSON(w, http.StatusOK, examples)
}
