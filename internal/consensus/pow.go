package consensus

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// MaxDifficulty is the length of a hex-encoded 256-bit digest.
const MaxDifficulty = 64

// checkEvery is how many nonces are tried between cancellation checks.
const checkEvery = 1024

// PoW implements proof-of-work as a count of leading '0' hex characters.
type PoW struct {
	difficulty int
	prefix     string
}

func NewPoW(difficulty int) (*PoW, error) {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return nil, fmt.Errorf("%w: %d (want 0..%d)", ErrDifficultyOutOfRange, difficulty, MaxDifficulty)
	}
	return &PoW{difficulty: difficulty, prefix: strings.Repeat("0", difficulty)}, nil
}

func (p *PoW) Difficulty() int { return p.difficulty }

func (p *PoW) Satisfied(hashHex string) bool {
	return strings.HasPrefix(hashHex, p.prefix)
}

func (p *PoW) ValidateHash(hashHex string) error {
	if !p.Satisfied(hashHex) {
		return fmt.Errorf("%w: hash %s lacks %d leading zeros", ErrInvalidConsensus, hashHex, p.difficulty)
	}
	return nil
}

// Result is the outcome of a successful Search.
type Result struct {
	Nonce    uint64
	Hash     string
	Attempts uint64
}

// Search tries nonces from start upward until hashAt returns a hash that satisfies
// the difficulty. The start nonce itself is tried first, so an already satisfying
// input comes back unchanged. ctx is polled every checkEvery attempts.
func (p *PoW) Search(ctx context.Context, start uint64, hashAt func(nonce uint64) (string, error)) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	nonce := start
	var attempts uint64
	for {
		h, err := hashAt(nonce)
		if err != nil {
			return Result{}, err
		}
		attempts++
		if p.Satisfied(h) {
			return Result{Nonce: nonce, Hash: h, Attempts: attempts}, nil
		}
		if nonce == math.MaxUint64 {
			return Result{}, ErrNonceSpaceExhausted
		}
		nonce++

		if attempts%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
	}
}
