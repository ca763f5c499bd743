// Package domain holds the primitive types and the error taxonomy shared by
// the marketplace core and its collaborators.
package domain

// Address identifies an account on the value ledger and the asset registry.
// Every actor in a sale (agency, buyer, token holder, platform, the
// marketplace escrow itself) is an Address.
type Address string

// ZeroAddress is the absent address.
const ZeroAddress Address = ""

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }
