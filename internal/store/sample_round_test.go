package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSampleRepository(t *testing.T) {
	s := newTestStore(t)

	samples := []json.RawMessage{
		json.RawMessage(`{"pose":[1],"label":"Fist"}`),
		json.RawMessage(`{"pose":[2],"label":"HandUp"}`),
	}
	m := testModel("m")
	if err := s.Models().Create(m, samples...); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", m.SampleCount)
	}

	got, err := s.Samples().GetByModelID("m")
	if err != nil {
		t.Fatalf("GetByModelID() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[1].SampleIndex != 1 || string(got[1].Data) != string(samples[1]) {
		t.Errorf("second sample = %+v", got[1])
	}

	n, err := s.Samples().Count("m")
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}

	t.Run("unknown model has none", func(t *testing.T) {
		got, err := s.Samples().GetByModelID("missing")
		if err != nil || len(got) != 0 {
			t.Errorf("GetByModelID(missing) = %v, %v", got, err)
		}
	})
}

func TestModelRepository_CreateIsAtomic(t *testing.T) {
	s := newTestStore(t)

	samples := []json.RawMessage{
		json.RawMessage(`{"pose":[1],"label":"Fist"}`),
		json.RawMessage(`{"pose":`),
	}
	if err := s.Models().Create(testModel("m"), samples...); err == nil {
		t.Fatal("expected an error for an invalid sample")
	}

	if _, err := s.Models().GetByID("m"); !errors.Is(err, ErrNotFound) {
		t.Errorf("model row should be rolled back, GetByID() error = %v", err)
	}
	if n, _ := s.Samples().Count("m"); n != 0 {
		t.Errorf("expected no samples after rollback, got %d", n)
	}

	t.Run("duplicate id keeps the first model's samples", func(t *testing.T) {
		if err := s.Models().Create(testModel("dup"), samples[0]); err != nil {
			t.Fatal(err)
		}
		if err := s.Models().Create(testModel("dup"), samples[0], samples[0]); err == nil {
			t.Fatal("expected duplicate id error")
		}
		if n, _ := s.Samples().Count("dup"); n != 1 {
			t.Errorf("Count(dup) = %d, want 1", n)
		}
	})
}

func TestRoundRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		rd := &Round{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Spawned:   10 + i,
			Cleared:   i,
			Missed:    10,
		}
		if err := repo.Create(rd); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "r3" {
		t.Fatalf("expected 3 rounds newest first, got %+v", all)
	}
	if all[0].Spawned != 12 || all[0].Cleared != 2 || all[0].Missed != 10 {
		t.Errorf("r3 = %+v", all[0])
	}
	if !all[2].StartedAt.Equal(base) {
		t.Errorf("r1 started at %v, want %v", all[2].StartedAt, base)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d rounds", len(limited))
	}
}
