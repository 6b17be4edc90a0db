package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(quotas map[string]int, fallback int) (*Limiter, *time.Time) {
	l := New(time.Minute, quotas, fallback)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllow_QuotaPerActionAndParticipant(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"start_round": 2}, 10)
	defer l.Stop()

	ok, _ := l.Allow("start_round", "p1")
	assert.True(t, ok)
	ok, _ = l.Allow("start_round", "p1")
	assert.True(t, ok)

	ok, retryAfter := l.Allow("start_round", "p1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retryAfter)

	// Other participants and other actions have their own windows.
	ok, _ = l.Allow("start_round", "p2")
	assert.True(t, ok)
	ok, _ = l.Allow("get_players", "p1")
	assert.True(t, ok)
}

func TestAllow_WindowResets(t *testing.T) {
	l, now := newTestLimiter(map[string]int{"start_round": 1}, 10)
	defer l.Stop()

	ok, _ := l.Allow("start_round", "p1")
	require.True(t, ok)
	ok, _ = l.Allow("start_round", "p1")
	require.False(t, ok)

	*now = now.Add(time.Minute)
	ok, _ = l.Allow("start_round", "p1")
	assert.True(t, ok, "a new window opens after the old one expires")
}

func TestAllow_RetryAfterShrinks(t *testing.T) {
	l, now := newTestLimiter(map[string]int{"a": 1}, 10)
	defer l.Stop()

	ok, _ := l.Allow("a", "p1")
	require.True(t, ok)

	*now = now.Add(40 * time.Second)
	ok, retryAfter := l.Allow("a", "p1")
	require.False(t, ok)
	assert.Equal(t, 20*time.Second, retryAfter)
}

func TestAllow_FallbackAndUnlimited(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"free": 0}, 1)
	defer l.Stop()

	// Quota <= 0 means unlimited.
	for i := 0; i < 50; i++ {
		ok, _ := l.Allow("free", "p1")
		require.True(t, ok)
	}

	// Unlisted actions use the fallback quota.
	ok, _ := l.Allow("unlisted", "p1")
	assert.True(t, ok)
	ok, _ = l.Allow("unlisted", "p1")
	assert.False(t, ok)
}

func TestSweep_DropsExpiredWindows(t *testing.T) {
	l, now := newTestLimiter(nil, 5)
	defer l.Stop()

	l.Allow("a", "p1")
	l.Allow("b", "p2")

	*now = now.Add(2 * time.Minute)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.windows)
}
