package aggregate

import "math/big"

const (
	tvlMethodReserves = "reserves_at_last_event"
	tvlMethodNone     = "unavailable"
)

// reserveTVL reads value locked from the reserves carried on the window's
// last event. Vault balances equal reserves after every commit.
func reserveTVL(acc *Accumulator) (*big.Int, *big.Int, string) {
	if acc.PoolMeta.ReserveA == 0 && acc.PoolMeta.ReserveB == 0 {
		return nil, nil, tvlMethodNone
	}
	return new(big.Int).SetUint64(acc.PoolMeta.ReserveA),
		new(big.Int).SetUint64(acc.PoolMeta.ReserveB),
		tvlMethodReserves
}
