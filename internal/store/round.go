package store

import (
	"database/sql"
	"time"
)

// Round is a finished game.
type Round struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Spawned   int       `json:"spawned"`
	Cleared   int       `json:"cleared"`
	Missed    int       `json:"missed"`
}

// RoundRepository records finished games.
type RoundRepository struct {
	db *sql.DB
}

// Rounds returns the round repository for this store.
func (s *Store) Rounds() *RoundRepository {
	return &RoundRepository{db: s.db}
}

// Create inserts a finished round.
func (r *RoundRepository) Create(rd *Round) error {
	rd.StartedAt = rd.StartedAt.UTC()
	rd.EndedAt = rd.EndedAt.UTC()

	_, err := r.db.Exec(
		`INSERT INTO rounds (id, started_at, ended_at, spawned, cleared, missed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rd.ID, rd.StartedAt, rd.EndedAt, rd.Spawned, rd.Cleared, rd.Missed,
	)
	return err
}

// List retrieves the most recent rounds, newest first. limit <= 0 returns all.
func (r *RoundRepository) List(limit int) ([]*Round, error) {
	query := `SELECT id, started_at, ended_at, spawned, cleared, missed
		 FROM rounds ORDER BY ended_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []*Round
	for rows.Next() {
		rd := &Round{}
		if err := rows.Scan(&rd.ID, &rd.StartedAt, &rd.EndedAt, &rd.Spawned, &rd.Cleared, &rd.Missed); err != nil {
			return nil, err
		}
		rounds = append(rounds, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rounds, nil
}
