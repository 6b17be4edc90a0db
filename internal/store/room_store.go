package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/impostor/internal/game"
)

const pgUniqueViolation = "23505"

// RoomStore persists rooms and their rosters in Postgres. Every mutation of
// one room runs inside a transaction that locks the room row, so concurrent
// update requests serialize instead of losing writes.
type RoomStore struct {
	db *pgxpool.Pool
}

func NewRoomStore(db *pgxpool.Pool) *RoomStore {
	return &RoomStore{db: db}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *RoomStore) CreateRoom(ctx context.Context, r *game.Room) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO game_rooms (id, join_code, host_id, words, impostor_count, status, current_word)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.JoinCode, r.HostID, r.Words, r.ImpostorCount, string(r.Status), r.CurrentWord,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return game.ErrJoinCodeTaken
		}
		return err
	}

	for _, p := range r.Players {
		if err := upsertParticipant(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *RoomStore) RoomByID(ctx context.Context, id string) (*game.Room, error) {
	return loadRoom(ctx, s.db, `WHERE id = $1`, id, false)
}

func (s *RoomStore) RoomByCode(ctx context.Context, joinCode string) (*game.Room, error) {
	return loadRoom(ctx, s.db, `WHERE join_code = $1`, joinCode, false)
}

func (s *RoomStore) UpdateRoom(ctx context.Context, id string, fn func(*game.Room) error) (*game.Room, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	room, err := loadRoom(ctx, tx, `WHERE id = $1`, id, true)
	if err != nil {
		return nil, err
	}

	if err := fn(room); err != nil {
		// validation/authorization failed inside the critical section:
		// nothing was written, rollback is a no-op state-wise
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE game_rooms
		SET words = $2, impostor_count = $3, status = $4, current_word = $5, host_id = $6
		WHERE id = $1`,
		room.ID, room.Words, room.ImpostorCount, string(room.Status), room.CurrentWord, room.HostID,
	)
	if err != nil {
		return nil, err
	}

	keep := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		keep = append(keep, p.ID)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM room_players
		WHERE room_id = $1 AND NOT (participant_id = ANY($2))`,
		room.ID, keep,
	)
	if err != nil {
		return nil, err
	}
	for _, p := range room.Players {
		if err := upsertParticipant(ctx, tx, p); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomStore) DeleteRoom(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM room_players WHERE room_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM game_rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return game.ErrRoomNotFound
	}
	return tx.Commit(ctx)
}

func loadRoom(ctx context.Context, q querier, where string, arg any, forUpdate bool) (*game.Room, error) {
	query := `
		SELECT id, join_code, host_id, words, impostor_count, status, current_word
		FROM game_rooms ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var r game.Room
	var status string
	err := q.QueryRow(ctx, query, arg).Scan(
		&r.ID, &r.JoinCode, &r.HostID, &r.Words, &r.ImpostorCount, &status, &r.CurrentWord,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	r.Status = game.Status(status)

	rows, err := q.Query(ctx, `
		SELECT participant_id, display_name, is_host, role, assigned_word, credential, joined_at
		FROM room_players
		WHERE room_id = $1
		ORDER BY joined_at, participant_id`,
		r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := game.Participant{RoomID: r.ID}
		var role string
		var joined time.Time
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.IsHost, &role, &p.AssignedWord, &p.Credential, &joined); err != nil {
			return nil, err
		}
		p.Role = game.Role(role)
		p.JoinedAt = joined
		r.Players = append(r.Players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}

func upsertParticipant(ctx context.Context, tx pgx.Tx, p *game.Participant) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO room_players (room_id, participant_id, display_name, is_host, role, assigned_word, credential, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_id, participant_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    is_host = EXCLUDED.is_host,
		    role = EXCLUDED.role,
		    assigned_word = EXCLUDED.assigned_word,
		    credential = EXCLUDED.credential`,
		p.RoomID, p.ID, p.DisplayName, p.IsHost, string(p.Role), p.AssignedWord, p.Credential, p.JoinedAt,
	)
	return err
}
