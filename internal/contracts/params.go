package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DecodeArgs decodes a caller-supplied JSON payload into the shapes Params
// understands. Numbers stay json.Number so large integers keep their digits.
// An empty payload is treated as JSON null.
func DecodeArgs(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalidParam("decode params: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalidParam("decode params: trailing data after JSON value")
	}
	return v, nil
}

// Params matches the unit's declared inputs against args and returns one
// token per input, in declaration order.
//
// A unit without an inputs key takes no parameters and args is ignored.
// Otherwise a scalar counts as one argument, an array as its length and null
// as zero; the count must equal the number of declared inputs. Objects are
// never accepted.
func (u Unit) Params(args any) ([]Token, error) {
	if u.Inputs == nil {
		return []Token{}, nil
	}
	if _, ok := args.(map[string]any); ok {
		return nil, invalidParam("Map type unsupported")
	}
	if argsLen(args) != len(u.Inputs) {
		return nil, invalidParam("params of abi parse failed")
	}

	params := make([]Token, 0, len(u.Inputs))
	for idx, variable := range u.Inputs {
		var (
			tok Token
			err error
		)
		switch a := args.(type) {
		case bool:
			tok = BoolToken(a)
		case string:
			tok, err = stringToken(a, variable)
		case []any:
			tok, err = valueToken(a[idx], variable)
		default:
			tok, err = numberToken(a)
		}
		if err != nil {
			return nil, err
		}
		params = append(params, tok)
	}
	return params, nil
}

func argsLen(args any) int {
	switch a := args.(type) {
	case nil:
		return 0
	case []any:
		return len(a)
	case map[string]any:
		return len(a)
	default:
		return 1
	}
}

// valueToken converts one array element. Nested arrays reuse the same
// variable's declared type for every element.
func valueToken(value any, variable Variable) (Token, error) {
	switch v := value.(type) {
	case bool:
		return BoolToken(v), nil
	case string:
		return stringToken(v, variable)
	case []any:
		items := make([]Token, 0, len(v))
		for _, item := range v {
			tok, err := valueToken(item, variable)
			if err != nil {
				return Token{}, err
			}
			items = append(items, tok)
		}
		return ArrayToken(items), nil
	case nil, map[string]any:
		data, _ := json.Marshal(v)
		return Token{}, invalidParam("Null and Map types are unsupported, data: %s", data)
	default:
		return numberToken(v)
	}
}

// numberToken accepts only integers representable as uint64.
func numberToken(value any) (Token, error) {
	switch n := value.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return UintToken(u), nil
		}
	case float64:
		if n >= 0 && n < math.MaxUint64 && n == math.Trunc(n) {
			return UintToken(uint64(n)), nil
		}
	case uint64:
		return UintToken(n), nil
	case int:
		if n >= 0 {
			return UintToken(uint64(n)), nil
		}
	case int64:
		if n >= 0 {
			return UintToken(uint64(n)), nil
		}
	default:
		return Token{}, invalidParam("unsupported value of type %T", value)
	}
	return Token{}, invalidParam("f64 is not supported")
}

// stringToken dispatches on the declared type's prefix, so "address[]"
// parses its string as a single address.
func stringToken(s string, variable Variable) (Token, error) {
	switch {
	case strings.HasPrefix(variable.Type, "address"):
		addr, err := ParseAddress(s)
		if err != nil {
			return Token{}, &ConversionError{Value: s, Type: "address", Err: err}
		}
		return AddressToken(addr), nil
	case strings.HasPrefix(variable.Type, "uint256"):
		n, err := parseUint256(s)
		if err != nil {
			return Token{}, &ConversionError{Value: s, Type: "uint256", Err: err}
		}
		return Uint256Token(n), nil
	default:
		return Token{}, invalidParam("convert %s to type: %s failed", s, variable.Type)
	}
}

// ParseAddress parses 40 hex digits with an optional 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q, expected %d hex digits", s, 2*common.AddressLength)
	}
	return common.HexToAddress(s), nil
}

// parseUint256 reads 0x-prefixed input as hex and anything else as plain
// decimal digits. Signs are rejected.
func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New("empty number")
	}
	if s[0] == '+' || s[0] == '-' {
		return nil, fmt.Errorf("signed number %q", s)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" && len(s) > 2 {
			digits = "0"
		}
		return uint256.FromHex("0x" + digits)
	}
	return uint256.FromDecimal(s)
}
