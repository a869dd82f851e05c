package ledger

import (
	"math"
	"sync"

	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/gagliardetto/solana-go"

	"ammEngine/internal/model"
)

// DefaultMaxWholeUnits caps a single transfer at one million whole units.
const DefaultMaxWholeUnits = 1_000_000

// Hook validates a transfer after the ledger's own checks and before balances move.
type Hook interface {
	Validate(req TransferRequest, asset model.Asset, from, to model.Account) error
}

// AmountRangeHook rejects zero transfers and transfers above MaxWholeUnits
// scaled by the asset's decimals.
type AmountRangeHook struct {
	MaxWholeUnits uint64
}

func (h AmountRangeHook) Validate(req TransferRequest, asset model.Asset, _, _ model.Account) error {
	if req.Amount == 0 {
		return ErrInvalidAmount.Wrap("amount must be greater than zero")
	}
	limit := maxUnits(h.MaxWholeUnits, asset.Decimals)
	if req.Amount > limit {
		return ErrAmountTooLarge.Wrapf("amount %d exceeds %d", req.Amount, limit)
	}
	return nil
}

// maxUnits returns whole*10^decimals, saturating at the uint64 maximum.
func maxUnits(whole uint64, decimals uint8) uint64 {
	if whole == 0 {
		whole = DefaultMaxWholeUnits
	}
	limit := whole
	for i := uint8(0); i < decimals; i++ {
		next, err := smath.Mul64(limit, 10)
		if err != nil {
			return math.MaxUint64
		}
		limit = next
	}
	return limit
}

// AllowList admits transfers whose source and destination owners are listed.
// An empty list admits everything.
type AllowList struct {
	mu     sync.RWMutex
	owners map[solana.PublicKey]struct{}
}

func NewAllowList(owners ...solana.PublicKey) *AllowList {
	l := &AllowList{owners: make(map[solana.PublicKey]struct{}, len(owners))}
	for _, o := range owners {
		l.owners[o] = struct{}{}
	}
	return l
}

func (l *AllowList) Add(owner solana.PublicKey) {
	l.mu.Lock()
	l.owners[owner] = struct{}{}
	l.mu.Unlock()
}

func (l *AllowList) Validate(_ TransferRequest, _ model.Asset, from, to model.Account) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.owners) == 0 {
		return nil
	}
	if _, ok := l.owners[from.Owner]; !ok {
		return ErrNotAllowed.Wrapf("source owner %s", from.Owner)
	}
	if _, ok := l.owners[to.Owner]; !ok {
		return ErrNotAllowed.Wrapf("destination owner %s", to.Owner)
	}
	return nil
}
