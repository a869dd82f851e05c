package ledger

import errorsmod "cosmossdk.io/errors"

// Codespace namespaces ledger error codes.
const Codespace = "ledger"

var (
	ErrAccountNotFound     = errorsmod.Register(Codespace, 2, "account not found")
	ErrAssetNotFound       = errorsmod.Register(Codespace, 3, "asset not found")
	ErrAssetExists         = errorsmod.Register(Codespace, 4, "asset already registered")
	ErrAccountExists       = errorsmod.Register(Codespace, 5, "account already open")
	ErrInsufficientBalance = errorsmod.Register(Codespace, 6, "insufficient balance")
	ErrUnauthorized        = errorsmod.Register(Codespace, 7, "authority does not control source account")
	ErrAssetMismatch       = errorsmod.Register(Codespace, 8, "account holds a different asset")
	ErrDecimalsMismatch    = errorsmod.Register(Codespace, 9, "decimals do not match asset")
	ErrBalanceOverflow     = errorsmod.Register(Codespace, 10, "balance overflow")
	ErrInvalidAmount       = errorsmod.Register(Codespace, 11, "invalid transfer amount")
	ErrAmountTooLarge      = errorsmod.Register(Codespace, 12, "transfer amount exceeds limit")
	ErrNotAllowed          = errorsmod.Register(Codespace, 13, "owner not on allow list")
)
