package game

import (
	"encoding/json"
	"testing"
)

func TestParseGesture(t *testing.T) {
	tests := []struct {
		label  string
		want   Gesture
		wantOK bool
	}{
		{"Fist", Fist, true},
		{"ThumbsUp", ThumbsUp, true},
		{"HandUp", HandUp, true},
		{"fist", 0, false},
		{"Wave", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseGesture(tt.label)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("ParseGesture(%q) = %v, %v; want %v, %v", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGesture_SymbolTable(t *testing.T) {
	want := map[Gesture]string{Fist: "✊", ThumbsUp: "👍", HandUp: "🤚"}
	for _, g := range Gestures() {
		if g.Symbol() != want[g] {
			t.Errorf("%s symbol = %q, want %q", g, g.Symbol(), want[g])
		}
		back, ok := ParseGesture(g.Label())
		if !ok || back != g {
			t.Errorf("label %q does not map back to %v", g.Label(), g)
		}
	}

	if Gesture(9).Symbol() != "?" || Gesture(9).Glyph() != "?" {
		t.Error("out of range gesture should render as ?")
	}
}

func TestGesture_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Entity{ID: 1, Symbol: ThumbsUp})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["symbol"] != "👍" {
		t.Errorf("symbol = %v, want 👍", out["symbol"])
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		health int
		want   Band
		color  string
	}{
		{100, BandOK, "green"},
		{80, BandOK, "green"},
		{71, BandOK, "green"},
		{70, BandWarning, "yellow"},
		{40, BandWarning, "yellow"},
		{31, BandWarning, "yellow"},
		{30, BandCritical, "red"},
		{10, BandCritical, "red"},
		{0, BandCritical, "red"},
	}

	for _, tt := range tests {
		got := BandFor(tt.health)
		if got != tt.want {
			t.Errorf("BandFor(%d) = %v, want %v", tt.health, got, tt.want)
		}
		if got.Color() != tt.color {
			t.Errorf("BandFor(%d).Color() = %s, want %s", tt.health, got.Color(), tt.color)
		}
	}
}
