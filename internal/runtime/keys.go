package runtime

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	poolPrefix  = []byte("amm/pool/")
	eventPrefix = []byte("amm/event/")
)

func poolKey(address solana.PublicKey) []byte {
	key := make([]byte, 0, len(poolPrefix)+solana.PublicKeyLength)
	key = append(key, poolPrefix...)
	return append(key, address.Bytes()...)
}

// eventKey orders events by sequence under big-endian encoding.
func eventKey(seq uint64) []byte {
	key := make([]byte, len(eventPrefix)+8)
	copy(key, eventPrefix)
	binary.BigEndian.PutUint64(key[len(eventPrefix):], seq)
	return key
}

func eventSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(eventPrefix):])
}
