package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Model is a saved classifier with the evaluation it was trained under.
type Model struct {
	ID        string          `json:"id"`
	Labels    []string        `json:"labels"`
	Data      json.RawMessage `json:"data,omitempty"`
	TrainSize int             `json:"train_size"`
	TestSize  int             `json:"test_size"`
	Accuracy  float64         `json:"accuracy"`
	CreatedAt time.Time       `json:"created_at"`

	// SampleCount is read from model_samples, not stored on the row.
	SampleCount int `json:"sample_count"`
}

// ModelRepository provides CRUD operations for models.
type ModelRepository struct {
	db *sql.DB
}

// Models returns the model repository for this store.
func (s *Store) Models() *ModelRepository {
	return &ModelRepository{db: s.db}
}

const modelColumns = `id, labels, data, train_size, test_size, accuracy, created_at`

// Create inserts a new model together with the samples it was trained on.
// Both are written in one transaction, so a failed sample leaves no model.
func (r *ModelRepository) Create(m *Model, samples ...json.RawMessage) error {
	m.CreatedAt = time.Now().UTC()

	labels, err := json.Marshal(m.Labels)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO models (`+modelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(labels), string(m.Data), m.TrainSize, m.TestSize, m.Accuracy, m.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertSamples(tx, m.ID, samples); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.SampleCount = len(samples)
	return nil
}

// GetByID retrieves a model by its ID.
func (r *ModelRepository) GetByID(id string) (*Model, error) {
	return scanModel(r.db.QueryRow(
		`SELECT `+modelColumns+` FROM models WHERE id = ?`, id,
	))
}

// Latest retrieves the most recently saved model.
func (r *ModelRepository) Latest() (*Model, error) {
	return scanModel(r.db.QueryRow(
		`SELECT ` + modelColumns + ` FROM models ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	))
}

// List retrieves every model, newest first, without the model data.
func (r *ModelRepository) List() ([]*Model, error) {
	rows, err := r.db.Query(
		`SELECT ` + modelColumns + ` FROM models ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []*Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		m.Data = nil
		models = append(models, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return models, nil
}

// Delete removes a model and its samples.
func (r *ModelRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*Model, error) {
	m := &Model{}
	var labels, data string

	err := row.Scan(&m.ID, &labels, &data, &m.TrainSize, &m.TestSize, &m.Accuracy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(labels), &m.Labels); err != nil {
		return nil, err
	}
	m.Data = json.RawMessage(data)
	return m, nil
}
