package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService([]byte("test-secret"), time.Hour)

	token, err := svc.Issue("pid-1", "room-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token, "pid-1", "room-1")
	require.NoError(t, err)
	assert.Equal(t, "pid-1", claims.ParticipantID)
	assert.Equal(t, "room-1", claims.RoomID)
}

func TestVerify_Rejections(t *testing.T) {
	svc := NewService([]byte("test-secret"), time.Hour)
	token, err := svc.Issue("pid-1", "room-1")
	require.NoError(t, err)

	cases := []struct {
		name  string
		run   func() (*Claims, error)
	}{
		{"wrong participant", func() (*Claims, error) { return svc.Verify(token, "pid-2", "room-1") }},
		{"wrong room", func() (*Claims, error) { return svc.Verify(token, "pid-1", "room-2") }},
		{"garbage token", func() (*Claims, error) { return svc.Verify("not.a.jwt", "pid-1", "room-1") }},
		{"empty token", func() (*Claims, error) { return svc.Verify("", "pid-1", "room-1") }},
		{"wrong secret", func() (*Claims, error) {
			other := NewService([]byte("other-secret"), time.Hour)
			return other.Verify(token, "pid-1", "room-1")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.run()
			require.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	svc := NewService([]byte("test-secret"), -time.Minute)
	token, err := svc.Issue("pid-1", "room-1")
	require.NoError(t, err)

	_, err = svc.Verify(token, "pid-1", "room-1")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("abc", "abc"))
	assert.False(t, Matches("abc", "abd"))
	assert.False(t, Matches("abc", ""))
	assert.False(t, Matches("", ""))
}
