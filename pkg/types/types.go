package types

// Package types holds the public, stable value types the chain hands to its
// collaborators (console, CLI). They carry plain values only.

// BlockView is a read-only snapshot of one block, shaped for structured display.
type BlockView struct {
	Index        uint64         `json:"index"`
	PreviousHash string         `json:"previous_hash"`
	Timestamp    string         `json:"timestamp"`
	Data         map[string]any `json:"data"`
	Nonce        uint64         `json:"nonce"`
	Hash         string         `json:"hash"`
}

// ViolationKind classifies the first integrity failure found by validation.
type ViolationKind string

const (
	HashMismatch ViolationKind = "hash-mismatch"
	LinkMismatch ViolationKind = "link-mismatch"
)

// ValidationResult reports a chain walk. Index and Kind are set only when Valid is false.
type ValidationResult struct {
	Valid bool          `json:"valid"`
	Index uint64        `json:"index,omitempty"`
	Kind  ViolationKind `json:"kind,omitempty"`
}
