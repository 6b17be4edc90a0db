package game

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

const (
	MinPlayersLocal  = 2
	MinPlayersOnline = 3

	MaxWords      = 50
	MaxWordLen    = 100
	MaxNameLen    = 50
	JoinCodeLen   = 6
	joinCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Participant struct {
	ID          string
	RoomID      string
	DisplayName string
	IsHost      bool
	Role        Role
	// AssignedWord is set iff Role == RoleWordHolder. An impostor never
	// carries the secret word.
	AssignedWord string
	// Credential is the on-file copy of the bearer secret issued at
	// registration. Never exposed through roster queries.
	Credential string
	JoinedAt   time.Time
}

type Room struct {
	ID            string
	JoinCode      string
	HostID        string
	Words         []string
	ImpostorCount int
	Status        Status
	// CurrentWord is kept for reference; clients only ever see it through
	// their own word-holder view.
	CurrentWord string
	Players     []*Participant
}

// Participant returns the roster entry for id, or nil.
func (r *Room) Participant(id string) *Participant {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) HasWord(word string) bool {
	for _, w := range r.Words {
		if w == word {
			return true
		}
	}
	return false
}

// ResetRoles clears every participant's role and word and returns the room
// to waiting. Word bank and impostor count survive the reset.
func (r *Room) ResetRoles() {
	for _, p := range r.Players {
		p.Role = RoleUnset
		p.AssignedWord = ""
	}
	r.CurrentWord = ""
	r.Status = StatusWaiting
}

// Clone deep-copies the room so store implementations can hand out values
// without aliasing their internal state.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Words = append([]string(nil), r.Words...)
	cp.Players = make([]*Participant, len(r.Players))
	for i, p := range r.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	return &cp
}

// NewJoinCode returns a random 6-character code over A-Z0-9. Rejection
// sampling keeps the draw uniform over the alphabet.
func NewJoinCode() string {
	const maxByte = byte(255 - (256 % len(joinCodeChars)))

	out := make([]byte, 0, JoinCodeLen)
	buf := make([]byte, JoinCodeLen*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if b <= maxByte {
				out = append(out, joinCodeChars[int(b)%len(joinCodeChars)])
				if len(out) == JoinCodeLen {
					return string(out)
				}
			}
		}
	}
}

// NormalizeJoinCode uppercases the input and checks the exact 6-char A-Z0-9
// format before any store lookup.
func NormalizeJoinCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != JoinCodeLen {
		return "", fmt.Errorf("%w: join code must be %d characters", ErrValidation, JoinCodeLen)
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(joinCodeChars, rune(code[i])) {
			return "", fmt.Errorf("%w: join code must use A-Z and 0-9 only", ErrValidation)
		}
	}
	return code, nil
}

// ValidateDisplayName enforces the 1..50 char bound after trimming.
func ValidateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: display name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", fmt.Errorf("%w: display name must be at most %d characters", ErrValidation, MaxNameLen)
	}
	return name, nil
}

// ValidateWords trims, de-duplicates and bounds a word bank.
func ValidateWords(words []string) ([]string, error) {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if utf8.RuneCountInString(w) > MaxWordLen {
			return nil, fmt.Errorf("%w: words must be at most %d characters", ErrValidation, MaxWordLen)
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) > MaxWords {
		return nil, fmt.Errorf("%w: word bank is capped at %d words", ErrValidation, MaxWords)
	}
	return out, nil
}
