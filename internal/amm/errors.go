package amm

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// Codespace namespaces pool engine error codes.
const Codespace = "amm"

var (
	ErrSlippageExceeded      = errorsmod.Register(Codespace, 2, "slippage exceeded")
	ErrInsufficientLiquidity = errorsmod.Register(Codespace, 3, "insufficient liquidity")
	ErrArithmeticOverflow    = errorsmod.Register(Codespace, 4, "arithmetic overflow")
	ErrArithmeticUnderflow   = errorsmod.Register(Codespace, 5, "arithmetic underflow")
	ErrTransferFailed        = errorsmod.Register(Codespace, 6, "transfer failed")
	ErrAlreadyExists         = errorsmod.Register(Codespace, 7, "pool already exists")
	ErrPoolNotFound          = errorsmod.Register(Codespace, 8, "pool not found")
	ErrInvalidVault          = errorsmod.Register(Codespace, 9, "invalid vault")
	ErrInvalidFeeRate        = errorsmod.Register(Codespace, 10, "invalid fee rate")
	ErrInvalidPair           = errorsmod.Register(Codespace, 11, "invalid asset pair")
	ErrInvariantViolation    = errorsmod.Register(Codespace, 12, "constant product decreased")
)

// TransferError reports a ledger transfer refused during a pool operation. It
// matches ErrTransferFailed and unwraps to the ledger's own error.
type TransferError struct {
	Leg string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransferFailed.Error(), e.Leg, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Cause() error { return e.Err }

// ABCICode and Codespace report the error as ErrTransferFailed.
func (e *TransferError) ABCICode() uint32 { return ErrTransferFailed.ABCICode() }

func (e *TransferError) Codespace() string { return ErrTransferFailed.Codespace() }

func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}

func transferFailed(leg string, err error) error {
	return &TransferError{Leg: leg, Err: err}
}
