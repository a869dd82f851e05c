// Package codec encodes persisted records as an 8-byte discriminator followed by borsh.
package codec

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Discriminator returns the record-type prefix for name.
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Encode serializes v behind the discriminator for name.
func Encode(name string, v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	d := Discriminator(name)
	buf.Write(d[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Decode checks the discriminator for name and deserializes the rest into v.
func Decode(name string, data []byte, v interface{}) error {
	if len(data) < 8 {
		return fmt.Errorf("decode %s: data too short", name)
	}
	d := Discriminator(name)
	if !bytes.Equal(data[:8], d[:]) {
		return fmt.Errorf("decode %s: invalid discriminator", name)
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
