// Package events encodes pool events as ABI logs, decodes them back into
// typed payloads and fans committed records out to subscribers.
package events

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Keys travel as bytes32; none of the arguments are indexed.
const poolEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "pool", "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "assetA", "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "assetB", "type": "bytes32"},
      {"indexed": false, "internalType": "uint64", "name": "feeRate", "type": "uint64"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "user", "type": "bytes32"},
      {"indexed": false, "internalType": "uint64", "name": "amountA", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountB", "type": "uint64"}
    ],
    "name": "LiquidityAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes32", "name": "user", "type": "bytes32"},
      {"indexed": false, "internalType": "uint64", "name": "amountIn", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountOut", "type": "uint64"},
      {"indexed": false, "internalType": "bool", "name": "aToB", "type": "bool"}
    ],
    "name": "SwapExecuted",
    "type": "event"
  }
]`

var (
	poolEventsABI     abi.ABI
	poolEventsABIOnce sync.Once
	poolEventsABIErr  error
)

// PoolEventsABI returns the parsed event ABI.
func PoolEventsABI() (abi.ABI, error) {
	poolEventsABIOnce.Do(func() {
		poolEventsABI, poolEventsABIErr = abi.JSON(strings.NewReader(poolEventsABIJSON))
	})
	return poolEventsABI, poolEventsABIErr
}

// Topic0 returns the lowercase hex signature hash of an event name.
func Topic0(name string) (string, error) {
	parsed, err := PoolEventsABI()
	if err != nil {
		return "", err
	}
	ev, ok := parsed.Events[name]
	if !ok {
		return "", errUnknownEvent(name)
	}
	return strings.ToLower(ev.ID.Hex()), nil
}
