package game

import (
	"context"
	"sync"
)

// Store is the durable-room contract. The Postgres implementation lives in
// internal/store; the in-memory one below backs tests and single-node runs.
//
// UpdateRoom must apply fn atomically: concurrent mutations of the same room
// serialize, and a failed fn leaves the room untouched.
type Store interface {
	CreateRoom(ctx context.Context, room *Room) error
	RoomByID(ctx context.Context, id string) (*Room, error)
	RoomByCode(ctx context.Context, joinCode string) (*Room, error)
	UpdateRoom(ctx context.Context, id string, fn func(*Room) error) (*Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
	codes map[string]string // joinCode -> roomID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*Room),
		codes: make(map[string]string),
	}
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[room.JoinCode]; taken {
		return ErrJoinCodeTaken
	}
	s.rooms[room.ID] = room.Clone()
	s.codes[room.JoinCode] = room.ID
	return nil
}

func (s *MemoryStore) RoomByID(ctx context.Context, id string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) RoomByCode(ctx context.Context, joinCode string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.codes[joinCode]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s.rooms[id].Clone(), nil
}

func (s *MemoryStore) UpdateRoom(ctx context.Context, id string, fn func(*Room) error) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}

	// fn runs on a copy so a failed update never half-mutates the stored room.
	next := r.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.rooms[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	delete(s.codes, r.JoinCode)
	delete(s.rooms, id)
	return nil
}
