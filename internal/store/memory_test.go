package store

import (
	"context"
	"testing"

	"github.com/mvickers/gemfall/internal/engine"
)

func testLive(t *testing.T) *Live {
	t.Helper()
	cfg := engine.RoundConfig{
		GridSize:      5,
		TargetMatches: 10,
		MoveBudget:    20,
		BlockTypes: []engine.BlockType{
			{ID: "a", Color: engine.RGB{R: 1}, SpawnWeight: 1},
			{ID: "b", Color: engine.RGB{G: 1}, SpawnWeight: 1},
			{ID: "c", Color: engine.RGB{B: 1}, SpawnWeight: 1},
			{ID: "d", Color: engine.RGB{R: 1, G: 1}, SpawnWeight: 1},
		},
	}
	rec := &engine.Recorder{}
	rd, err := engine.NewRound(cfg, 1, rec.Hooks())
	if err != nil {
		t.Fatal(err)
	}
	return &Live{Round: rd, Rec: rec, OwnerID: "anon_x", Variant: "classic"}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	l := testLive(t)

	if err := m.Save(ctx, l); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, l.Round.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != l {
		t.Error("store must return the same live entry")
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
