package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredential = errors.New("invalid credential")

// Claims bind a credential to one participant in one room. There is no
// account system: possession of a valid, on-file token is the only proof of
// identity.
type Claims struct {
	ParticipantID string `json:"pid"`
	RoomID        string `json:"room"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

// Issue signs a fresh credential for participantID in roomID. The caller
// stores it on the participant record; re-issuing rotates the on-file copy.
func (s *Service) Issue(participantID, roomID string) (string, error) {
	claims := Claims{
		ParticipantID: participantID,
		RoomID:        roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks the signature and that the claims match the presented
// participant and room. It does not consult the store; the caller must still
// compare the token against the on-file copy (see Matches) so rotation
// revokes older tokens.
func (s *Service) Verify(token, participantID, roomID string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidCredential
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.ParticipantID != participantID || claims.RoomID != roomID {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// Matches compares a presented token with the on-file copy in constant time.
func Matches(presented, onFile string) bool {
	if onFile == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(onFile)) == 1
}
