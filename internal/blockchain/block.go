package blockchain

import (
	"context"
	"strconv"
	"time"

	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/consensus"
	vcrypto "github.com/Whirlwind03/Blockchain-Dissertation-system/internal/crypto"
)

// GenesisPrevHash is the sentinel previous hash of block 0.
const GenesisPrevHash = "0"

// TimestampLayout is the C ctime layout; timestamps are hashed in UTC at second precision.
const TimestampLayout = time.ANSIC

type Block struct {
	Index        uint64
	PreviousHash string
	Timestamp    time.Time
	Data         Payload
	Nonce        uint64

	// Hash is cached, not enforced: it only changes when the block is mined or
	// explicitly recomputed.
	Hash string

	algo vcrypto.Algorithm
}

// NewBlock builds a SHA-256 block and computes its hash from the given nonce.
func NewBlock(index uint64, prevHash string, ts time.Time, data Payload, nonce uint64) (*Block, error) {
	return NewBlockWithAlgorithm(vcrypto.SHA256, index, prevHash, ts, data, nonce)
}

func NewBlockWithAlgorithm(algo vcrypto.Algorithm, index uint64, prevHash string, ts time.Time, data Payload, nonce uint64) (*Block, error) {
	b := &Block{
		Index:        index,
		PreviousHash: prevHash,
		Timestamp:    ts,
		Data:         data,
		Nonce:        nonce,
		algo:         algo,
	}
	h, err := b.CalculateHash()
	if err != nil {
		return nil, err
	}
	b.Hash = h
	return b, nil
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Algorithm reports the digest this block hashes with.
func (b *Block) Algorithm() vcrypto.Algorithm { return b.algo }

// CalculateHash recomputes the digest from the block's current fields.
// It never touches b.Hash.
func (b *Block) CalculateHash() (string, error) {
	pre, err := b.preimage()
	if err != nil {
		return "", err
	}
	return b.digest(pre, b.Nonce), nil
}

// preimage is everything hashed except the nonce, which always comes last.
func (b *Block) preimage() (string, error) {
	data, err := b.Data.Canonical()
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(b.Index, 10) + b.PreviousHash + FormatTimestamp(b.Timestamp) + data, nil
}

func (b *Block) digest(pre string, nonce uint64) string {
	return b.algo.SumHex([]byte(pre + strconv.FormatUint(nonce, 10)))
}

// MeetsDifficulty reports whether the stored hash has difficulty leading '0' hex chars.
func (b *Block) MeetsDifficulty(difficulty int) bool {
	pow, err := consensus.NewPoW(difficulty)
	if err != nil {
		return false
	}
	return pow.Satisfied(b.Hash)
}

// Mine searches nonces upward from the current one until the hash meets difficulty.
// A block that already qualifies is left untouched. On error or cancellation the
// block keeps its pre-mining nonce and hash.
func (b *Block) Mine(ctx context.Context, difficulty int) error {
	pow, err := consensus.NewPoW(difficulty)
	if err != nil {
		return err
	}
	_, err = b.mine(ctx, pow)
	return err
}

func (b *Block) mine(ctx context.Context, engine consensus.Engine) (consensus.Result, error) {
	pre, err := b.preimage()
	if err != nil {
		return consensus.Result{}, err
	}
	res, err := engine.Search(ctx, b.Nonce, func(nonce uint64) (string, error) {
		return b.digest(pre, nonce), nil
	})
	if err != nil {
		return consensus.Result{}, err
	}
	b.Nonce = res.Nonce
	b.Hash = res.Hash
	return res, nil
}

// snapshot returns a copy whose payload is not shared with b.
func (b *Block) snapshot() Block {
	out := *b
	out.Data = b.Data.Clone()
	return out
}
