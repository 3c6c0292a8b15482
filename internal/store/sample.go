package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Sample is one training example a model was built from.
type Sample struct {
	ID          int64           `json:"id"`
	ModelID     string          `json:"model_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
}

// SampleRepository provides access to model samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// insertSamples adds the samples of a model inside tx, in recorded order.
func insertSamples(tx *sql.Tx, modelID string, samples []json.RawMessage) error {
	if len(samples) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT INTO model_samples (model_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if !json.Valid(data) {
			return fmt.Errorf("sample %d: invalid JSON", i)
		}
		if _, err := stmt.Exec(modelID, i, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// GetByModelID retrieves the samples of a model in recorded order.
func (r *SampleRepository) GetByModelID(modelID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, model_id, sample_index, data
		 FROM model_samples
		 WHERE model_id = ?
		 ORDER BY sample_index`,
		modelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.ModelID, &s.SampleIndex, &data); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Count returns how many samples a model has.
func (r *SampleRepository) Count(modelID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM model_samples WHERE model_id = ?`, modelID).Scan(&n)
	return n, err
}
