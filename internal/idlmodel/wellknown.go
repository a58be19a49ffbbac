package idlmodel

import "strings"

// WellKnownProgram is one entry in the built-in alias registry (spec.md
// §4.1's "Registry"): a name or address that resolves to a bundled
// program's on-chain address without requiring the subscriber to supply
// an IDL for it.
type WellKnownProgram struct {
	Aliases []string
	Address string
}

// wellKnown lists the programs the indexer recognizes out of the box.
// The token-transfer decoder (internal/decode/token) dispatches on these
// addresses directly; this registry only provides alias resolution, e.g.
// so a subscriber can write "token-2022" instead of the raw address.
var wellKnown = []WellKnownProgram{
	{
		Aliases: []string{"token", "spl-token", "spl_token"},
		Address: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
	},
	{
		Aliases: []string{"token-2022", "token2022", "spl-token-2022"},
		Address: "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb",
	},
}

// ResolveAlias resolves a case-insensitive alias or a bare program
// address to its canonical on-chain address. The second return value is
// false when nameOrAddress matches no known alias and isn't recognized
// as one of the bundled addresses either — callers should then treat it
// as an arbitrary user-supplied program address.
func ResolveAlias(nameOrAddress string) (string, bool) {
	lower := strings.ToLower(nameOrAddress)
	for _, wk := range wellKnown {
		if wk.Address == nameOrAddress {
			return wk.Address, true
		}
		for _, alias := range wk.Aliases {
			if alias == lower {
				return wk.Address, true
			}
		}
	}
	return nameOrAddress, false
}

// IsTokenProgram reports whether address is one of the bundled SPL Token
// program addresses (Token or Token-2022), used by the token-transfer
// decoder to decide whether an instruction is in its domain.
func IsTokenProgram(address string) bool {
	for _, wk := range wellKnown {
		if wk.Address == address {
			return true
		}
	}
	return false
}
