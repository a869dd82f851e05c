package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
)

const (
	DefaultAMMProgram    = "8zuw1hrY3T3rPfv61Fko2645cjSq1w3mJgsDXRh4vpW3"
	DefaultLedgerProgram = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// ProgramIDs are the deployment identifiers pool and account addresses are
// derived under. They are fixed for the life of the process.
type ProgramIDs struct {
	AMM    solana.PublicKey
	Ledger solana.PublicKey
}

var (
	programsOnce sync.Once
	programs     ProgramIDs
	programsErr  error
	programsSet  atomic.Bool
)

// InitPrograms parses and fixes the program ids. Only the first call has an
// effect; later calls return the values it established.
func InitPrograms(ammProgram, ledgerProgram string) (ProgramIDs, error) {
	programsOnce.Do(func() {
		programs, programsErr = parsePrograms(ammProgram, ledgerProgram)
		programsSet.Store(programsErr == nil)
	})
	return programs, programsErr
}

// Programs returns the ids fixed by InitPrograms and whether it succeeded.
func Programs() (ProgramIDs, bool) {
	if !programsSet.Load() {
		return ProgramIDs{}, false
	}
	return programs, true
}

func parsePrograms(ammProgram, ledgerProgram string) (ProgramIDs, error) {
	if ammProgram == "" {
		ammProgram = DefaultAMMProgram
	}
	if ledgerProgram == "" {
		ledgerProgram = DefaultLedgerProgram
	}
	a, err := solana.PublicKeyFromBase58(ammProgram)
	if err != nil {
		return ProgramIDs{}, fmt.Errorf("parse amm program id: %w", err)
	}
	l, err := solana.PublicKeyFromBase58(ledgerProgram)
	if err != nil {
		return ProgramIDs{}, fmt.Errorf("parse ledger program id: %w", err)
	}
	if a.Equals(l) {
		return ProgramIDs{}, fmt.Errorf("amm and ledger program ids must differ")
	}
	return ProgramIDs{AMM: a, Ledger: l}, nil
}
