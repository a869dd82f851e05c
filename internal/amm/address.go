package amm

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const poolSeed = "pool"

// CanonicalPair orders two asset ids so both argument orders name one pool.
func CanonicalPair(a, b solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		return b, a
	}
	return a, b
}

// PoolSeeds returns the derivation seeds of the pool for an asset pair.
func PoolSeeds(a, b solana.PublicKey) [][]byte {
	lo, hi := CanonicalPair(a, b)
	return [][]byte{[]byte(poolSeed), lo.Bytes(), hi.Bytes()}
}

// DerivePoolAddress returns the pool address for an asset pair under
// programID together with its derivation nonce.
func DerivePoolAddress(programID, a, b solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, nonce, err := solana.FindProgramAddress(PoolSeeds(a, b), programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive pool for %s/%s: %w", a, b, err)
	}
	return addr, nonce, nil
}
