package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"example.com/impostor/internal/notify"
)

// CredentialIssuer hands out the per-room bearer secret returned at
// registration. Implemented by internal/auth; an interface here keeps the
// service testable without signing real tokens.
type CredentialIssuer interface {
	Issue(participantID, roomID string) (string, error)
}

// Service owns the online room lifecycle: create/join, host configuration,
// round start/reset and the per-participant role views. All mutations go
// through Store.UpdateRoom so concurrent host actions serialize.
type Service struct {
	store    Store
	assigner *Assigner
	creds    CredentialIssuer
	broker   notify.Broker
	log      *slog.Logger
}

func NewService(store Store, assigner *Assigner, creds CredentialIssuer, broker notify.Broker, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		assigner: assigner,
		creds:    creds,
		broker:   broker,
		log:      log,
	}
}

// CreateRoom registers hostID as the sole host participant of a fresh room
// in waiting state. Join-code collisions are retried with a new code.
func (s *Service) CreateRoom(ctx context.Context, hostID, hostName string) (*Room, string, error) {
	name, err := ValidateDisplayName(hostName)
	if err != nil {
		return nil, "", err
	}

	roomID := uuid.NewString()
	cred, err := s.creds.Issue(hostID, roomID)
	if err != nil {
		return nil, "", fmt.Errorf("issue credential: %w", err)
	}

	for attempt := 0; attempt < 5; attempt++ {
		room := &Room{
			ID:            roomID,
			JoinCode:      NewJoinCode(),
			HostID:        hostID,
			Words:         []string{},
			ImpostorCount: 1,
			Status:        StatusWaiting,
			Players: []*Participant{{
				ID:          hostID,
				RoomID:      roomID,
				DisplayName: name,
				IsHost:      true,
				Credential:  cred,
				JoinedAt:    time.Now().UTC(),
			}},
		}

		err := s.store.CreateRoom(ctx, room)
		if errors.Is(err, ErrJoinCodeTaken) {
			continue
		}
		if err != nil {
			return nil, "", err
		}

		s.log.Info("room created", "room_id", room.ID, "join_code", room.JoinCode)
		return room, cred, nil
	}
	return nil, "", errors.New("could not allocate a unique join code")
}

// JoinRoom registers participantID into the room behind joinCode. Re-joining
// with an identity already on the roster is idempotent (supports reconnect):
// the existing record is kept and a fresh credential is issued, which also
// invalidates the previous one.
func (s *Service) JoinRoom(ctx context.Context, joinCode, participantID, displayName string) (*Room, string, error) {
	code, err := NormalizeJoinCode(joinCode)
	if err != nil {
		return nil, "", err
	}
	name, err := ValidateDisplayName(displayName)
	if err != nil {
		return nil, "", err
	}

	found, err := s.store.RoomByCode(ctx, code)
	if err != nil {
		return nil, "", err
	}

	cred, err := s.creds.Issue(participantID, found.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue credential: %w", err)
	}

	room, err := s.store.UpdateRoom(ctx, found.ID, func(r *Room) error {
		if p := r.Participant(participantID); p != nil {
			p.Credential = cred
			return nil
		}
		if r.Status != StatusWaiting {
			return ErrRoomAlreadyPlaying
		}
		r.Players = append(r.Players, &Participant{
			ID:          participantID,
			RoomID:      r.ID,
			DisplayName: name,
			Credential:  cred,
			JoinedAt:    time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, notify.EventRosterChanged, room.ID)
	return room, cred, nil
}

// StartRound draws roles and the secret word and moves the room to playing.
// Optional words/impostorCount act as a host configuration update applied
// before the draw, matching the start wire shape. Either the whole round
// start commits or nothing does.
func (s *Service) StartRound(ctx context.Context, roomID, actorID string, words []string, impostorCount *int) error {
	_, err := s.store.UpdateRoom(ctx, roomID, func(r *Room) error {
		if err := requireHost(r, actorID); err != nil {
			return err
		}
		if r.Status != StatusWaiting {
			return ErrRoomAlreadyPlaying
		}
		if err := applyConfig(r, words, impostorCount); err != nil {
			return err
		}
		if len(r.Words) == 0 {
			return ErrNoWordsAvailable
		}
		if len(r.Players) < MinPlayersOnline {
			return fmt.Errorf("%w: need at least %d players, have %d",
				ErrInsufficientParticipants, MinPlayersOnline, len(r.Players))
		}

		asn, err := s.assigner.Assign(len(r.Players), r.ImpostorCount, r.Words)
		if err != nil {
			return err
		}
		for i, p := range r.Players {
			p.Role = asn.Roles[i]
			if p.Role == RoleWordHolder {
				p.AssignedWord = asn.Word
			} else {
				p.AssignedWord = ""
			}
		}
		r.CurrentWord = asn.Word
		r.Status = StatusPlaying
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, notify.EventRoundStarted, roomID)
	s.log.Info("round started", "room_id", roomID)
	return nil
}

// NewRound clears every role and word and returns the room to waiting.
// Word bank and impostor count survive.
func (s *Service) NewRound(ctx context.Context, roomID, actorID string) error {
	_, err := s.store.UpdateRoom(ctx, roomID, func(r *Room) error {
		if err := requireHost(r, actorID); err != nil {
			return err
		}
		r.ResetRoles()
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, notify.EventRoundReset, roomID)
	return nil
}

// UpdateConfig replaces the word bank and/or impostor count. Host-only and
// permitted only while the room is waiting.
func (s *Service) UpdateConfig(ctx context.Context, roomID, actorID string, words []string, impostorCount *int) error {
	_, err := s.store.UpdateRoom(ctx, roomID, func(r *Room) error {
		if err := requireHost(r, actorID); err != nil {
			return err
		}
		if r.Status != StatusWaiting {
			return ErrRoomAlreadyPlaying
		}
		return applyConfig(r, words, impostorCount)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, notify.EventRoomUpdated, roomID)
	return nil
}

// DeleteRoom destroys the room and every participant record.
func (s *Service) DeleteRoom(ctx context.Context, roomID, actorID string) error {
	room, err := s.store.RoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireHost(room, actorID); err != nil {
		return err
	}
	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	s.publish(ctx, notify.EventRoomDeleted, roomID)
	s.log.Info("room deleted", "room_id", roomID)
	return nil
}

// LeaveRoom removes the caller's own record. A leaving host destroys the
// whole room; there is no host migration.
func (s *Service) LeaveRoom(ctx context.Context, roomID, participantID string) error {
	room, err := s.store.RoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.HostID == participantID {
		if err := s.store.DeleteRoom(ctx, roomID); err != nil {
			return err
		}
		s.publish(ctx, notify.EventRoomDeleted, roomID)
		return nil
	}

	_, err = s.store.UpdateRoom(ctx, roomID, func(r *Room) error {
		for i, p := range r.Players {
			if p.ID == participantID {
				r.Players = append(r.Players[:i], r.Players[i+1:]...)
				return nil
			}
		}
		return ErrParticipantNotFound
	})
	if err != nil {
		return err
	}

	s.publish(ctx, notify.EventRosterChanged, roomID)
	return nil
}

// MyRole returns the caller's own role and word. The word is empty for
// impostors and before a round starts. Reading is idempotent.
func (s *Service) MyRole(ctx context.Context, roomID, participantID string) (Role, string, error) {
	room, err := s.store.RoomByID(ctx, roomID)
	if err != nil {
		return RoleUnset, "", err
	}
	p := room.Participant(participantID)
	if p == nil {
		return RoleUnset, "", ErrParticipantNotFound
	}
	return p.Role, p.AssignedWord, nil
}

// PlayerView is the roster entry safe to show to anyone: no role, no word,
// no credential.
type PlayerView struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	IsHost        bool   `json:"isHost"`
}

func (s *Service) Roster(ctx context.Context, roomID string) ([]PlayerView, error) {
	room, err := s.store.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	out := make([]PlayerView, 0, len(room.Players))
	for _, p := range room.Players {
		out = append(out, PlayerView{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			IsHost:        p.IsHost,
		})
	}
	return out, nil
}

// Room returns the current room state. Used by the HTTP layer for
// authorization lookups; handlers must never serialize it wholesale.
func (s *Service) Room(ctx context.Context, roomID string) (*Room, error) {
	return s.store.RoomByID(ctx, roomID)
}

// RoomByCode resolves a join code, e.g. for the share endpoint.
func (s *Service) RoomByCode(ctx context.Context, joinCode string) (*Room, error) {
	code, err := NormalizeJoinCode(joinCode)
	if err != nil {
		return nil, err
	}
	return s.store.RoomByCode(ctx, code)
}

// requireHost re-checks, server-side, that the actor is the recorded host.
// The client's self-reported host flag is never trusted.
func requireHost(r *Room, actorID string) error {
	if r.HostID != actorID {
		return ErrNotHost
	}
	return nil
}

func applyConfig(r *Room, words []string, impostorCount *int) error {
	if words != nil {
		clean, err := ValidateWords(words)
		if err != nil {
			return err
		}
		r.Words = clean
	}
	if impostorCount != nil {
		if *impostorCount < 1 {
			return fmt.Errorf("%w: impostor count must be at least 1", ErrValidation)
		}
		r.ImpostorCount = *impostorCount
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType, roomID string) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, notify.Event{Type: eventType, RoomID: roomID}); err != nil {
		s.log.Warn("event publish failed", "type", eventType, "room_id", roomID, "err", err)
	}
}
