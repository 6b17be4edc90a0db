package game

import (
	"fmt"
	"math/rand/v2"
)

type Role string

const (
	RoleUnset      Role = ""
	RoleWordHolder Role = "word_holder"
	RoleImpostor   Role = "impostor"
)

// Assignment is the result of a single round draw: one role per player slot
// and the round's secret word. Only word-holder slots ever see the word.
type Assignment struct {
	Roles []Role
	Word  string
}

// Assigner draws round assignments. The random source is injectable so tests
// can run deterministically.
type Assigner struct {
	rnd *rand.Rand
}

func NewAssigner() *Assigner {
	return NewAssignerWithSource(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func NewAssignerWithSource(src rand.Source) *Assigner {
	return &Assigner{rnd: rand.New(src)}
}

// Assign partitions playerCount slots into impostors and word holders and
// picks the secret word uniformly from words.
//
// The effective impostor count is min(requested, playerCount/2), never below 1.
// An over-large request is capped silently; callers that need a strict request
// must validate before calling.
func (a *Assigner) Assign(playerCount, impostorCount int, words []string) (Assignment, error) {
	if len(words) == 0 {
		return Assignment{}, ErrNoWordsAvailable
	}
	if playerCount < MinPlayersLocal {
		return Assignment{}, fmt.Errorf("%w: need at least %d players, have %d",
			ErrInsufficientParticipants, MinPlayersLocal, playerCount)
	}

	word := words[a.rnd.IntN(len(words))]
	effective := EffectiveImpostorCount(impostorCount, playerCount)

	roles := make([]Role, playerCount)
	for i := range roles {
		roles[i] = RoleWordHolder
	}

	// Rejection-sample distinct impostor indices.
	picked := make(map[int]struct{}, effective)
	for len(picked) < effective {
		picked[a.rnd.IntN(playerCount)] = struct{}{}
	}
	for i := range picked {
		roles[i] = RoleImpostor
	}

	// Full Fisher-Yates pass on top of the random index pick. Kept on purpose:
	// it guarantees positional independence no matter how the caller orders
	// its slots.
	for i := len(roles) - 1; i >= 1; i-- {
		j := a.rnd.IntN(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}

	return Assignment{Roles: roles, Word: word}, nil
}

// EffectiveImpostorCount is the clamp applied at round start:
// min(requested, playerCount/2), at least 1.
func EffectiveImpostorCount(requested, playerCount int) int {
	n := requested
	if max := playerCount / 2; n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}
