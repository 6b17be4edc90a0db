package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/impostor/internal/notify"
)

type stubIssuer struct{ n int }

func (s *stubIssuer) Issue(participantID, roomID string) (string, error) {
	s.n++
	return fmt.Sprintf("cred-%s-%d", participantID, s.n), nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(
		NewMemoryStore(),
		newTestAssigner(42),
		&stubIssuer{},
		notify.NewMemoryBroker(),
		slog.Default(),
	)
}

// fullRoom builds a room with a host plus extra players and returns
// (roomID, hostID, playerIDs).
func fullRoom(t *testing.T, svc *Service, extra int) (string, string, []string) {
	t.Helper()
	ctx := context.Background()

	hostID := uuid.NewString()
	room, _, err := svc.CreateRoom(ctx, hostID, "Host")
	require.NoError(t, err)

	ids := []string{hostID}
	for i := 0; i < extra; i++ {
		pid := uuid.NewString()
		_, _, err := svc.JoinRoom(ctx, room.JoinCode, pid, fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
		ids = append(ids, pid)
	}
	return room.ID, hostID, ids
}

func TestCreateRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	hostID := uuid.NewString()
	room, cred, err := svc.CreateRoom(ctx, hostID, "Alice")
	require.NoError(t, err)

	assert.Len(t, room.JoinCode, JoinCodeLen)
	assert.Equal(t, StatusWaiting, room.Status)
	assert.Equal(t, 1, room.ImpostorCount)
	assert.Equal(t, hostID, room.HostID)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	assert.Equal(t, cred, room.Players[0].Credential)

	_, _, err = svc.CreateRoom(ctx, uuid.NewString(), "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestJoinRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roomID, _, _ := fullRoom(t, svc, 0)
	room, err := svc.Room(ctx, roomID)
	require.NoError(t, err)

	t.Run("join code is case and whitespace insensitive", func(t *testing.T) {
		pid := uuid.NewString()
		joined, cred, err := svc.JoinRoom(ctx, "  "+strings.ToLower(room.JoinCode)+" ", pid, "Bob")
		require.NoError(t, err)
		assert.NotEmpty(t, cred)
		assert.Len(t, joined.Players, 2)
		assert.False(t, joined.Participant(pid).IsHost)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, _, err := svc.JoinRoom(ctx, "ZZZZZZ", uuid.NewString(), "Eve")
		require.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("rejoin is idempotent and rotates the credential", func(t *testing.T) {
		pid := uuid.NewString()
		first, cred1, err := svc.JoinRoom(ctx, room.JoinCode, pid, "Carol")
		require.NoError(t, err)
		before := len(first.Players)

		again, cred2, err := svc.JoinRoom(ctx, room.JoinCode, pid, "Carol")
		require.NoError(t, err)
		assert.Len(t, again.Players, before, "rejoin must not duplicate the roster entry")
		assert.NotEqual(t, cred1, cred2)
		assert.Equal(t, cred2, again.Participant(pid).Credential)
	})

	t.Run("new joins blocked mid-round, rejoins allowed", func(t *testing.T) {
		roomID, hostID, ids := fullRoom(t, svc, 2)
		playing, err := svc.Room(ctx, roomID)
		require.NoError(t, err)
		require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol"}, nil))

		_, _, err = svc.JoinRoom(ctx, playing.JoinCode, uuid.NewString(), "Late")
		require.ErrorIs(t, err, ErrRoomAlreadyPlaying)

		_, _, err = svc.JoinRoom(ctx, playing.JoinCode, ids[1], "Player 1")
		require.NoError(t, err)
	})
}

func TestStartRound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("assigns roles, word only to holders", func(t *testing.T) {
		roomID, hostID, ids := fullRoom(t, svc, 2)
		one := 1
		require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol", "luna"}, &one))

		room, err := svc.Room(ctx, roomID)
		require.NoError(t, err)
		assert.Equal(t, StatusPlaying, room.Status)
		assert.Contains(t, []string{"sol", "luna"}, room.CurrentWord)

		impostors := 0
		for _, id := range ids {
			role, word, err := svc.MyRole(ctx, roomID, id)
			require.NoError(t, err)
			switch role {
			case RoleImpostor:
				impostors++
				assert.Empty(t, word, "impostor must not see the word")
			case RoleWordHolder:
				assert.Equal(t, room.CurrentWord, word)
			default:
				t.Fatalf("participant %s has no role", id)
			}
		}
		assert.Equal(t, 1, impostors)
	})

	t.Run("too few players leaves the room untouched", func(t *testing.T) {
		roomID, hostID, _ := fullRoom(t, svc, 1)
		err := svc.StartRound(ctx, roomID, hostID, []string{"sol"}, nil)
		require.ErrorIs(t, err, ErrInsufficientParticipants)

		room, err := svc.Room(ctx, roomID)
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, room.Status)
		for _, p := range room.Players {
			assert.Equal(t, RoleUnset, p.Role)
		}
	})

	t.Run("empty word bank", func(t *testing.T) {
		roomID, hostID, _ := fullRoom(t, svc, 2)
		err := svc.StartRound(ctx, roomID, hostID, nil, nil)
		require.ErrorIs(t, err, ErrNoWordsAvailable)

		room, err := svc.Room(ctx, roomID)
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, room.Status)
	})

	t.Run("non-host cannot start", func(t *testing.T) {
		roomID, _, ids := fullRoom(t, svc, 2)
		err := svc.StartRound(ctx, roomID, ids[1], []string{"sol"}, nil)
		require.ErrorIs(t, err, ErrNotHost)
	})

	t.Run("already playing", func(t *testing.T) {
		roomID, hostID, _ := fullRoom(t, svc, 2)
		require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol"}, nil))
		err := svc.StartRound(ctx, roomID, hostID, []string{"sol"}, nil)
		require.ErrorIs(t, err, ErrRoomAlreadyPlaying)
	})

	t.Run("over-large impostor request is clamped", func(t *testing.T) {
		roomID, hostID, ids := fullRoom(t, svc, 3) // 4 players
		ten := 10
		require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol"}, &ten))

		impostors := 0
		for _, id := range ids {
			role, _, err := svc.MyRole(ctx, roomID, id)
			require.NoError(t, err)
			if role == RoleImpostor {
				impostors++
			}
		}
		assert.Equal(t, 2, impostors, "clamped to playerCount/2")
	})
}

func TestNewRound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roomID, hostID, ids := fullRoom(t, svc, 2)
	require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol", "luna"}, nil))

	require.NoError(t, svc.NewRound(ctx, roomID, hostID))

	room, err := svc.Room(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, room.Status)
	assert.Empty(t, room.CurrentWord)
	assert.Equal(t, []string{"sol", "luna"}, room.Words, "word bank survives")
	for _, id := range ids {
		role, word, err := svc.MyRole(ctx, roomID, id)
		require.NoError(t, err)
		assert.Equal(t, RoleUnset, role)
		assert.Empty(t, word)
	}

	err = svc.NewRound(ctx, roomID, ids[1])
	require.ErrorIs(t, err, ErrNotHost)
}

func TestUpdateConfig(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roomID, hostID, ids := fullRoom(t, svc, 2)

	two := 2
	require.NoError(t, svc.UpdateConfig(ctx, roomID, hostID, []string{"mar", "rio"}, &two))
	room, err := svc.Room(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mar", "rio"}, room.Words)
	assert.Equal(t, 2, room.ImpostorCount)

	// nil words means "leave the bank alone".
	require.NoError(t, svc.UpdateConfig(ctx, roomID, hostID, nil, nil))
	room, err = svc.Room(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mar", "rio"}, room.Words)

	err = svc.UpdateConfig(ctx, roomID, ids[1], []string{"x"}, nil)
	require.ErrorIs(t, err, ErrNotHost)
	room, err = svc.Room(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mar", "rio"}, room.Words, "failed update must not mutate")

	zero := 0
	err = svc.UpdateConfig(ctx, roomID, hostID, nil, &zero)
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.StartRound(ctx, roomID, hostID, nil, nil))
	err = svc.UpdateConfig(ctx, roomID, hostID, []string{"x"}, nil)
	require.ErrorIs(t, err, ErrRoomAlreadyPlaying)
}

func TestLeaveRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("member leaves", func(t *testing.T) {
		roomID, _, ids := fullRoom(t, svc, 2)
		require.NoError(t, svc.LeaveRoom(ctx, roomID, ids[1]))

		room, err := svc.Room(ctx, roomID)
		require.NoError(t, err)
		assert.Len(t, room.Players, 2)
		assert.Nil(t, room.Participant(ids[1]))
	})

	t.Run("host leave destroys the room", func(t *testing.T) {
		roomID, hostID, _ := fullRoom(t, svc, 2)
		require.NoError(t, svc.LeaveRoom(ctx, roomID, hostID))

		_, err := svc.Room(ctx, roomID)
		require.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("unknown participant", func(t *testing.T) {
		roomID, _, _ := fullRoom(t, svc, 1)
		err := svc.LeaveRoom(ctx, roomID, uuid.NewString())
		require.ErrorIs(t, err, ErrParticipantNotFound)
	})
}

func TestDeleteRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roomID, hostID, ids := fullRoom(t, svc, 1)

	err := svc.DeleteRoom(ctx, roomID, ids[1])
	require.ErrorIs(t, err, ErrNotHost)

	require.NoError(t, svc.DeleteRoom(ctx, roomID, hostID))
	_, err = svc.Room(ctx, roomID)
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMyRole_IsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roomID, hostID, ids := fullRoom(t, svc, 2)

	// Before a round starts everyone reads an unset role.
	role, word, err := svc.MyRole(ctx, roomID, ids[1])
	require.NoError(t, err)
	assert.Equal(t, RoleUnset, role)
	assert.Empty(t, word)

	require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol"}, nil))

	first, firstWord, err := svc.MyRole(ctx, roomID, ids[1])
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, againWord, err := svc.MyRole(ctx, roomID, ids[1])
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, firstWord, againWord)
	}
}

func TestRoster_NeverLeaksSecrets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roomID, hostID, _ := fullRoom(t, svc, 2)
	require.NoError(t, svc.StartRound(ctx, roomID, hostID, []string{"sol"}, nil))

	players, err := svc.Roster(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, players, 3)

	hosts := 0
	for _, p := range players {
		assert.NotEmpty(t, p.ParticipantID)
		assert.NotEmpty(t, p.DisplayName)
		if p.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)
}
