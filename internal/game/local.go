package game

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

type LocalPhase string

const (
	LocalSetup   LocalPhase = "setup"
	LocalReveal  LocalPhase = "reveal"
	LocalPlaying LocalPhase = "playing"
)

const (
	defaultLocalPlayers   = 4
	defaultLocalImpostors = 1
)

// LocalSession is the offline pass-the-phone variant: every player shares one
// device, so there is no network identity and no credential. It walks an
// ordered role list one player at a time through the reveal phase.
type LocalSession struct {
	mu sync.Mutex

	assigner *Assigner

	words         []string
	playerCount   int
	impostorCount int

	roles       []Role
	currentWord string
	current     int
	phase       LocalPhase
}

func NewLocalSession(assigner *Assigner) *LocalSession {
	if assigner == nil {
		assigner = NewAssigner()
	}
	return &LocalSession{
		assigner:      assigner,
		playerCount:   defaultLocalPlayers,
		impostorCount: defaultLocalImpostors,
		phase:         LocalSetup,
	}
}

func (s *LocalSession) AddWord(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return fmt.Errorf("%w: word is required", ErrValidation)
	}
	if utf8.RuneCountInString(word) > MaxWordLen {
		return fmt.Errorf("%w: words must be at most %d characters", ErrValidation, MaxWordLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.words {
		if w == word {
			return nil // duplicates are silently ignored
		}
	}
	if len(s.words) >= MaxWords {
		return fmt.Errorf("%w: word bank is capped at %d words", ErrValidation, MaxWords)
	}
	s.words = append(s.words, word)
	return nil
}

func (s *LocalSession) RemoveWord(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.words {
		if w == word {
			s.words = append(s.words[:i], s.words[i+1:]...)
			return
		}
	}
}

func (s *LocalSession) Words() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.words...)
}

// SetPlayerCount re-clamps the impostor count whenever the player count
// shrinks below what the current setting allows. Counts are only mutable
// during setup; a drawn role list is sized to the count at draw time and a
// change mid-walk would desync the two.
func (s *LocalSession) SetPlayerCount(n int) error {
	if n < MinPlayersLocal {
		return fmt.Errorf("%w: need at least %d players", ErrValidation, MinPlayersLocal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != LocalSetup {
		return fmt.Errorf("%w: player count can only change during setup", ErrValidation)
	}
	s.playerCount = n
	if max := n / 2; s.impostorCount > max {
		s.impostorCount = max
	}
	if s.impostorCount < 1 {
		s.impostorCount = 1
	}
	return nil
}

func (s *LocalSession) SetImpostorCount(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: impostor count must be at least 1", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != LocalSetup {
		return fmt.Errorf("%w: impostor count can only change during setup", ErrValidation)
	}
	s.impostorCount = n
	return nil
}

func (s *LocalSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerCount
}

func (s *LocalSession) ImpostorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.impostorCount
}

func (s *LocalSession) Phase() LocalPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Start draws a fresh assignment and begins the reveal walk at player 0.
// Also serves as new-round: it can be called again from any phase.
func (s *LocalSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asn, err := s.assigner.Assign(s.playerCount, s.impostorCount, s.words)
	if err != nil {
		return err
	}
	s.roles = asn.Roles
	s.currentWord = asn.Word
	s.current = 0
	s.phase = LocalReveal
	return nil
}

// CurrentReveal returns the index of the player whose turn it is plus their
// role and word (empty for impostors).
func (s *LocalSession) CurrentReveal() (playerIndex int, role Role, word string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != LocalReveal {
		return 0, RoleUnset, "", fmt.Errorf("%w: no reveal in progress", ErrValidation)
	}
	role = s.roles[s.current]
	if role == RoleWordHolder {
		word = s.currentWord
	}
	return s.current, role, word, nil
}

// NextPlayer hands the device to the next player; after the last one the
// session moves to playing.
func (s *LocalSession) NextPlayer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != LocalReveal {
		return
	}
	// Bound on the drawn role list, which is authoritative for this walk.
	s.current++
	if s.current >= len(s.roles) {
		s.phase = LocalPlaying
	}
}

// Reset returns to setup, keeping the accumulated word bank so words stay
// reusable across sessions.
func (s *LocalSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playerCount = defaultLocalPlayers
	s.impostorCount = defaultLocalImpostors
	s.roles = nil
	s.currentWord = ""
	s.current = 0
	s.phase = LocalSetup
}
