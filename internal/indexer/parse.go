package indexer

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParsePools validates pool addresses and returns them in canonical form.
func ParsePools(inputs []string) ([]string, error) {
	pools := make([]string, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(input)
		if err != nil {
			return nil, fmt.Errorf("invalid pool address: %s", input)
		}
		pools = append(pools, key.String())
	}
	return pools, nil
}
