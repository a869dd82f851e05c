package amm

import "github.com/holiman/uint256"

// checkProduct fails when the reserve product shrank across a swap.
func checkProduct(reserveIn, reserveOut, newIn, newOut uint64) error {
	oldK := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(reserveOut))
	newK := new(uint256.Int).Mul(uint256.NewInt(newIn), uint256.NewInt(newOut))
	if newK.Lt(oldK) {
		return ErrInvariantViolation.Wrapf("k %s -> %s", oldK.ToBig(), newK.ToBig())
	}
	return nil
}
