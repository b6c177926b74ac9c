package consensus

import (
	"context"
	"errors"
)

// Engine decides whether a block hash is admissible and searches for one that is.
type Engine interface {
	Difficulty() int
	Satisfied(hashHex string) bool
	ValidateHash(hashHex string) error
	Search(ctx context.Context, start uint64, hashAt func(nonce uint64) (string, error)) (Result, error)
}

var _ Engine = (*PoW)(nil)

var (
	ErrInvalidConsensus     = errors.New("invalid consensus")
	ErrNonceSpaceExhausted  = errors.New("nonce space exhausted")
	ErrDifficultyOutOfRange = errors.New("difficulty out of range")
)
