package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// Authority is a capability presented with a transfer. It proves control of
// the source account's owner key.
type Authority interface {
	Controls(owner solana.PublicKey) bool
	String() string
}

// UserAuthority is a signature capability for a plain owner key.
type UserAuthority solana.PublicKey

func (u UserAuthority) Controls(owner solana.PublicKey) bool {
	return solana.PublicKey(u).Equals(owner)
}

func (u UserAuthority) String() string {
	return solana.PublicKey(u).String()
}

// PoolAuthority proves control of a derived address by presenting the seeds
// and nonce it was derived from.
type PoolAuthority struct {
	programID solana.PublicKey
	seeds     [][]byte
	nonce     uint8
}

func NewPoolAuthority(programID solana.PublicKey, seeds [][]byte, nonce uint8) PoolAuthority {
	return PoolAuthority{programID: programID, seeds: seeds, nonce: nonce}
}

// Key re-derives the address the capability speaks for.
func (a PoolAuthority) Key() (solana.PublicKey, error) {
	seeds := make([][]byte, 0, len(a.seeds)+1)
	seeds = append(seeds, a.seeds...)
	seeds = append(seeds, []byte{a.nonce})
	return solana.CreateProgramAddress(seeds, a.programID)
}

func (a PoolAuthority) Controls(owner solana.PublicKey) bool {
	key, err := a.Key()
	if err != nil {
		return false
	}
	return key.Equals(owner)
}

func (a PoolAuthority) String() string {
	key, err := a.Key()
	if err != nil {
		return "invalid-derived-authority"
	}
	return key.String()
}
