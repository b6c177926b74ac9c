package blockchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/consensus"
	vcrypto "github.com/Whirlwind03/Blockchain-Dissertation-system/internal/crypto"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/pkg/types"
)

const DefaultMaxAppendRetries = 8

type Options struct {
	// Difficulty is the number of leading '0' hex characters a mined hash needs.
	Difficulty int
	Algorithm  vcrypto.Algorithm
	// MaxAppendRetries bounds how often Append re-mines after losing a race for the tip.
	MaxAppendRetries int
	Logger           *slog.Logger
	Clock            func() time.Time
}

type Chain struct {
	mu sync.RWMutex

	blocks []*Block

	engine     consensus.Engine
	algo       vcrypto.Algorithm
	maxRetries int
	log        *slog.Logger
	now        func() time.Time
}

func New(opts Options) (*Chain, error) {
	pow, err := consensus.NewPoW(opts.Difficulty)
	if err != nil {
		return nil, err
	}
	if opts.Algorithm == "" {
		opts.Algorithm = vcrypto.SHA256
	}
	if opts.MaxAppendRetries <= 0 {
		opts.MaxAppendRetries = DefaultMaxAppendRetries
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	c := &Chain{
		engine:     pow,
		algo:       opts.Algorithm,
		maxRetries: opts.MaxAppendRetries,
		log:        opts.Logger,
		now:        opts.Clock,
	}
	c.blocks = []*Block{c.CreateGenesisBlock()}
	return c, nil
}

// CreateGenesisBlock returns a fresh, unmined block 0.
func (c *Chain) CreateGenesisBlock() *Block {
	g, err := NewBlockWithAlgorithm(c.algo, 0, GenesisPrevHash, c.now(), Payload{"event": "Genesis Block"}, 0)
	if err != nil {
		// The genesis payload is a constant string map.
		panic(err)
	}
	return g
}

func (c *Chain) Difficulty() int { return c.engine.Difficulty() }

func (c *Chain) Algorithm() vcrypto.Algorithm { return c.algo }

func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// LatestBlock returns a copy of the tip.
func (c *Chain) LatestBlock() (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, err := c.latestLocked()
	if err != nil {
		return Block{}, err
	}
	return b.snapshot(), nil
}

func (c *Chain) latestLocked() (*Block, error) {
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1], nil
}

// BlockAt returns a copy of the block at index.
func (c *Chain) BlockAt(index uint64) (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index >= uint64(len(c.blocks)) {
		return Block{}, fmt.Errorf("%w: index %d, length %d", ErrBlockNotFound, index, len(c.blocks))
	}
	return c.blocks[index].snapshot(), nil
}

// Append mines a block carrying data on top of the current tip and publishes it.
// Mining runs without holding the lock; if another append wins the tip in the
// meantime the candidate is dropped and rebuilt. The chain is unchanged on error.
func (c *Chain) Append(ctx context.Context, data Payload) (Block, error) {
	data = data.Clone()
	if _, err := data.Canonical(); err != nil {
		return Block{}, err
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		cand, err := c.candidate(data)
		if err != nil {
			return Block{}, err
		}

		c.log.Info("mining block", "index", cand.Index, "difficulty", c.Difficulty(), "attempt", attempt+1)
		start := time.Now()
		res, err := cand.mine(ctx, c.engine)
		if err != nil {
			c.log.Warn("mining aborted", "index", cand.Index, "err", err)
			return Block{}, err
		}
		c.log.Info("block mined",
			"index", cand.Index,
			"nonce", cand.Nonce,
			"hash", cand.Hash,
			"attempts", res.Attempts,
			"elapsed", time.Since(start),
		)

		published, ok, err := c.publish(cand)
		if err != nil {
			c.log.Error("mined block rejected", "index", cand.Index, "hash", cand.Hash, "err", err)
			return Block{}, err
		}
		if ok {
			return published, nil
		}
		c.log.Warn("tip moved while mining, retrying", "index", cand.Index, "prevHash", cand.PreviousHash)
	}
	return Block{}, fmt.Errorf("%w: gave up after %d attempts", ErrConcurrentAppendConflict, c.maxRetries+1)
}

func (c *Chain) candidate(data Payload) (*Block, error) {
	c.mu.RLock()
	latest, err := c.latestLocked()
	var index uint64
	var prevHash string
	if err == nil {
		index = uint64(len(c.blocks))
		prevHash = latest.Hash
	}
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return NewBlockWithAlgorithm(c.algo, index, prevHash, c.now(), data, 0)
}

// publish appends b only if it still extends the current tip. A hash that fails
// the engine's predicate is an error; a stale tip is reported as ok == false.
func (c *Chain) publish(b *Block) (Block, bool, error) {
	if err := c.engine.ValidateHash(b.Hash); err != nil {
		return Block{}, false, fmt.Errorf("block %d: %w", b.Index, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	latest, err := c.latestLocked()
	if err != nil {
		return Block{}, false, nil
	}
	if b.Index != uint64(len(c.blocks)) || b.PreviousHash != latest.Hash {
		return Block{}, false, nil
	}
	c.blocks = append(c.blocks, b)
	return b.snapshot(), true, nil
}

// Validate walks blocks 1..n-1 in order and reports the first block whose stored
// hash differs from its recomputed hash, or whose previous hash differs from its
// predecessor's stored hash. It never mutates the chain.
func (c *Chain) Validate() types.ValidationResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := 1; i < len(c.blocks); i++ {
		cur := c.blocks[i]
		prev := c.blocks[i-1]

		h, err := cur.CalculateHash()
		if err != nil || !vcrypto.EqualHex(h, cur.Hash) {
			c.log.Warn("invalid hash", "index", i, "stored", cur.Hash, "computed", h)
			return types.ValidationResult{Valid: false, Index: uint64(i), Kind: types.HashMismatch}
		}
		if !vcrypto.EqualHex(cur.PreviousHash, prev.Hash) {
			c.log.Warn("invalid chain link", "index", i, "prevHash", cur.PreviousHash, "expected", prev.Hash)
			return types.ValidationResult{Valid: false, Index: uint64(i), Kind: types.LinkMismatch}
		}
	}
	return types.ValidationResult{Valid: true}
}

func (c *Chain) IsChainValid() bool {
	return c.Validate().Valid
}

// Render returns a display view of every block in chain order.
func (c *Chain) Render() []types.BlockView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.BlockView, 0, len(c.blocks))
	for _, b := range c.blocks {
		out = append(out, types.BlockView{
			Index:        b.Index,
			PreviousHash: b.PreviousHash,
			Timestamp:    FormatTimestamp(b.Timestamp),
			Data:         b.Data.Clone(),
			Nonce:        b.Nonce,
			Hash:         b.Hash,
		})
	}
	return out
}

// Corrupt overwrites the payload of a stored block without touching its hash.
// It exists to exercise Validate and is not part of normal operation.
func (c *Chain) Corrupt(index uint64, data Payload) error {
	data = data.Clone()
	if _, err := data.Canonical(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if index >= uint64(len(c.blocks)) {
		return fmt.Errorf("%w: index %d, length %d", ErrBlockNotFound, index, len(c.blocks))
	}
	c.blocks[index].Data = data
	c.log.Warn("block payload overwritten", "index", index)
	return nil
}

var (
	ErrEmptyChain               = errors.New("blockchain is empty")
	ErrBlockNotFound            = errors.New("block not found")
	ErrConcurrentAppendConflict = errors.New("concurrent append conflict")
	ErrDifficultyOutOfRange     = consensus.ErrDifficultyOutOfRange
)
