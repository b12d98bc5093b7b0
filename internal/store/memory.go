// internal/store/memory.go
//
// In-memory implementation of the round Store interface.
// This is a lightweight persistence layer for live round sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores *Live entries keyed by round ID in a map.
//   - Map access is guarded by an RWMutex; each Live entry carries its own
//     mutex so handlers can serialize engine calls per round.
//   - State is lost when the process restarts.
//   - Errors are returned for missing round IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mvickers/gemfall/internal/engine"
)

// ErrNotFound is returned by Get for unknown round IDs.
var ErrNotFound = errors.New("round not found")

// Live bundles an in-memory round with its event recorder and ownership
// metadata. The engine is not reentrant, so callers must hold Mu around any
// Round method that mutates state.
type Live struct {
	Mu    sync.Mutex
	Round *engine.Round
	Rec   *engine.Recorder

	OwnerID    string // user ID or anonymous cookie ID
	Variant    string
	Daily      bool
	Date       string // set for daily rounds, YYYY-MM-DD
	VariantIdx int    // preset index used for daily rounds
	CreatedAt  time.Time
}

// Store defines the persistence interface for live round sessions.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Save persists or updates a live round.
	Save(ctx context.Context, l *Live) error

	// Get retrieves a live round by its engine round ID.
	// Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*Live, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex
	rounds map[string]*Live
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*Live)}
}

func (m *memory) Save(ctx context.Context, l *Live) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[l.Round.ID] = l
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Live, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.rounds[id]; ok {
		return l, nil
	}
	return nil, ErrNotFound
}
