package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Kind selects which field of a Token carries its value.
type Kind int

const (
	KindBool Kind = iota
	KindUint
	KindAddress
	KindUint256
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindUint:
		return "uint"
	case KindAddress:
		return "address"
	case KindUint256:
		return "uint256"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is a typed call parameter ready to be bound to an ABI type. Only the
// field selected by Kind is meaningful.
type Token struct {
	Kind    Kind
	Bool    bool
	Uint    uint64
	Address common.Address
	Uint256 *uint256.Int
	Array   []Token
}

// BoolToken wraps a JSON boolean.
func BoolToken(b bool) Token { return Token{Kind: KindBool, Bool: b} }

// UintToken wraps a JSON number that fits in 64 bits.
func UintToken(n uint64) Token { return Token{Kind: KindUint, Uint: n} }

// AddressToken wraps a parsed 20-byte account address.
func AddressToken(a common.Address) Token { return Token{Kind: KindAddress, Address: a} }

// Uint256Token wraps a string-encoded 256-bit unsigned integer.
func Uint256Token(n *uint256.Int) Token { return Token{Kind: KindUint256, Uint256: n} }

// ArrayToken wraps the converted elements of a nested JSON array.
func ArrayToken(items []Token) Token { return Token{Kind: KindArray, Array: items} }

func (t Token) String() string {
	switch t.Kind {
	case KindBool:
		return fmt.Sprintf("Bool(%t)", t.Bool)
	case KindUint:
		return fmt.Sprintf("Uint(%d)", t.Uint)
	case KindAddress:
		return fmt.Sprintf("Address(%s)", t.Address.Hex())
	case KindUint256:
		return fmt.Sprintf("Uint256(%s)", t.Uint256.Dec())
	case KindArray:
		parts := make([]string, len(t.Array))
		for i, item := range t.Array {
			parts[i] = item.String()
		}
		return "Array([" + strings.Join(parts, ", ") + "])"
	default:
		return t.Kind.String()
	}
}
