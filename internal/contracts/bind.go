package contracts

import (
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Bind converts a token into the Go value abi.Arguments.Pack expects for typ.
// Integer tokens are range checked against the declared bit size.
func Bind(tok Token, typ abi.Type) (any, error) {
	switch typ.T {
	case abi.BoolTy:
		if tok.Kind != KindBool {
			return nil, mismatch(tok, typ)
		}
		return tok.Bool, nil

	case abi.UintTy, abi.IntTy:
		n, ok := tok.bigInt()
		if !ok {
			return nil, mismatch(tok, typ)
		}
		return bindInteger(n, typ)

	case abi.AddressTy:
		if tok.Kind != KindAddress {
			return nil, mismatch(tok, typ)
		}
		return tok.Address, nil

	case abi.SliceTy, abi.ArrayTy:
		if tok.Kind != KindArray {
			return nil, mismatch(tok, typ)
		}
		if typ.T == abi.ArrayTy && len(tok.Array) != typ.Size {
			return nil, invalidParam("%s expects %d elements, got %d", typ.String(), typ.Size, len(tok.Array))
		}
		elem := typ.Elem.GetType()
		var out reflect.Value
		if typ.T == abi.SliceTy {
			out = reflect.MakeSlice(reflect.SliceOf(elem), len(tok.Array), len(tok.Array))
		} else {
			out = reflect.New(reflect.ArrayOf(typ.Size, elem)).Elem()
		}
		for i, item := range tok.Array {
			v, err := Bind(item, *typ.Elem)
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil

	default:
		return nil, invalidParam("abi type %s is not supported", typ.String())
	}
}

// BindArguments binds tokens positionally against declared arguments.
func BindArguments(args abi.Arguments, tokens []Token) ([]any, error) {
	if len(args) != len(tokens) {
		return nil, invalidParam("expected %d params, got %d", len(args), len(tokens))
	}
	values := make([]any, len(tokens))
	for i, tok := range tokens {
		v, err := Bind(tok, args[i].Type)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (t Token) bigInt() (*big.Int, bool) {
	switch t.Kind {
	case KindUint:
		return new(big.Int).SetUint64(t.Uint), true
	case KindUint256:
		return t.Uint256.ToBig(), true
	default:
		return nil, false
	}
}

func bindInteger(n *big.Int, typ abi.Type) (any, error) {
	bits := typ.Size
	if typ.T == abi.IntTy {
		bits--
	}
	if n.BitLen() > bits {
		return nil, invalidParam("value %s overflows %s", n.String(), typ.String())
	}

	if typ.T == abi.UintTy {
		switch typ.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil
	}
	switch typ.Size {
	case 8:
		return int8(n.Int64()), nil
	case 16:
		return int16(n.Int64()), nil
	case 32:
		return int32(n.Int64()), nil
	case 64:
		return n.Int64(), nil
	}
	return n, nil
}

func mismatch(tok Token, typ abi.Type) error {
	return invalidParam("cannot use %s as %s", tok, typ.String())
}
