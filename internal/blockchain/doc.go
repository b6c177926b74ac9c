// Package blockchain implements the in-memory event chain: blocks bound to their
// predecessor by hash, admitted after a proof-of-work search, and validated by
// re-deriving every hash and link.
//
// Block hashes are cached on the block rather than enforced. Tampering with a
// stored payload leaves the cached hash stale, which is exactly what Validate
// detects.
package blockchain
