package contracts

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerA = "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"
	ownerB = "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"
)

func mustArgs(t *testing.T, raw string) any {
	t.Helper()
	v, err := DecodeArgs([]byte(raw))
	require.NoError(t, err)
	return v
}

func unitWith(types ...string) Unit {
	inputs := make([]Variable, len(types))
	for i, typ := range types {
		inputs[i] = Variable{Name: "arg", Type: typ, InternalType: typ}
	}
	return Unit{Type: UnitFunction, Name: "fn", Inputs: inputs}
}

func TestDecodeArgs(t *testing.T) {
	v, err := DecodeArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = DecodeArgs([]byte("  "))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = DecodeArgs([]byte(`[1, "a", true]`))
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), "a", true}, v)

	_, err = DecodeArgs([]byte(`[1,`))
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = DecodeArgs([]byte(`[1] [2]`))
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestParams_NoInputsKeyIgnoresArgs(t *testing.T) {
	u := Unit{Type: UnitFunction, Name: "retrieve"}
	for _, raw := range []string{``, `null`, `[1, 2, 3]`, `{"a": 1}`, `"x"`} {
		tokens, err := u.Params(mustArgs(t, raw))
		require.NoError(t, err, raw)
		assert.Empty(t, tokens, raw)
	}
}

func TestParams_NullWithZeroInputs(t *testing.T) {
	u := Unit{Type: UnitFunction, Name: "retrieve", Inputs: []Variable{}}
	tokens, err := u.Params(nil)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	tokens, err = u.Params(mustArgs(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestParams_ArityMismatch(t *testing.T) {
	cases := []struct {
		unit Unit
		args string
	}{
		{unitWith(), `true`},
		{unitWith("uint256"), `null`},
		{unitWith("uint256"), `[]`},
		{unitWith("uint256"), `[1, 2]`},
		{unitWith("uint256", "bool"), `1`},
		{unitWith("address", "uint256"), `"0x0"`},
		{unitWith("bool", "bool", "bool"), `[true, false]`},
	}
	for _, tc := range cases {
		_, err := tc.unit.Params(mustArgs(t, tc.args))
		require.ErrorIs(t, err, ErrInvalidParam, tc.args)
		assert.Contains(t, err.Error(), "params of abi parse failed")
	}
}

func TestParams_MapUnsupported(t *testing.T) {
	doc, err := ParseDocument([]byte(multiSigConstructor))
	require.NoError(t, err)

	cases := []struct {
		unit Unit
		args string
	}{
		{doc.Constructor, `{"_owners": [], "_numConfirmRequired": 1, "_anyDepositAllowed": true}`},
		{doc.Constructor, `{"a": 1}`},
		{unitWith(), `{}`},
		{unitWith("uint256"), `{"num": 1}`},
	}
	for _, tc := range cases {
		_, err := tc.unit.Params(mustArgs(t, tc.args))
		require.ErrorIs(t, err, ErrInvalidParam, tc.args)
		assert.Contains(t, err.Error(), "Map type unsupported")
	}
}

func TestParams_Scalars(t *testing.T) {
	tokens, err := unitWith("uint256").Params(mustArgs(t, `42`))
	require.NoError(t, err)
	assert.Equal(t, []Token{UintToken(42)}, tokens)

	tokens, err = unitWith("bool").Params(mustArgs(t, `true`))
	require.NoError(t, err)
	assert.Equal(t, []Token{BoolToken(true)}, tokens)

	tokens, err = unitWith("address").Params(mustArgs(t, `"`+ownerA+`"`))
	require.NoError(t, err)
	assert.Equal(t, []Token{AddressToken(common.HexToAddress(ownerA))}, tokens)

	tokens, err = unitWith("uint256").Params(mustArgs(t, `"1000000000000000000"`))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, KindUint256, tokens[0].Kind)
	assert.Equal(t, "1000000000000000000", tokens[0].Uint256.Dec())
}

func TestParams_Numbers(t *testing.T) {
	u := unitWith("uint256")
	valid := map[string]uint64{
		`0`:                    0,
		`7`:                    7,
		`18446744073709551615`: 18446744073709551615,
	}
	for raw, want := range valid {
		tokens, err := u.Params(mustArgs(t, raw))
		require.NoError(t, err, raw)
		assert.Equal(t, []Token{UintToken(want)}, tokens, raw)
	}

	invalid := []string{`4.2`, `1.0`, `-1`, `1e3`, `18446744073709551616`}
	for _, raw := range invalid {
		_, err := u.Params(mustArgs(t, raw))
		require.ErrorIs(t, err, ErrInvalidParam, raw)
		assert.Contains(t, err.Error(), "f64 is not supported", raw)
	}
}

func TestParams_PlainFloat64(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`[12, 0.5]`), &v))
	arr := v.([]any)

	tok, err := numberToken(arr[0])
	require.NoError(t, err)
	assert.Equal(t, UintToken(12), tok)

	_, err = numberToken(arr[1])
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestParams_AddressRoundTrip(t *testing.T) {
	u := unitWith("address")
	for _, s := range []string{ownerA, strings.ToLower(ownerB), strings.TrimPrefix(ownerA, "0x")} {
		tokens, err := u.Params(s)
		require.NoError(t, err, s)
		require.Len(t, tokens, 1)
		assert.True(t, strings.EqualFold(strings.TrimPrefix(s, "0x"), strings.TrimPrefix(tokens[0].Address.Hex(), "0x")), s)
	}
}

func TestParams_AddressInvalid(t *testing.T) {
	u := unitWith("address")
	for _, s := range []string{
		"0x000000000000000000000000000000000000000",
		"0x00000000000000000000000000000000000000000",
		"0xZZ38Da6a701c568545dCfcB03FcB875f56beddC4",
		"0x0X" + strings.Repeat("ab", 20),
		"0x0x" + strings.Repeat("ab", 20),
		"",
	} {
		_, err := u.Params(s)
		require.Error(t, err, s)

		var conv *ConversionError
		require.True(t, errors.As(err, &conv), "want ConversionError for %q, got %v", s, err)
		assert.Equal(t, "address", conv.Type)
		assert.NotNil(t, conv.Err)
		assert.True(t, IsClientError(err))
	}
}

func TestParams_Uint256Strings(t *testing.T) {
	u := unitWith("uint256")
	maxUint := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	valid := map[string]string{
		"0":      "0",
		"255":    "255",
		"0xff":   "255",
		"0x00ff": "255",
		"0x0":    "0",
		maxUint:  maxUint,
	}
	for in, want := range valid {
		tokens, err := u.Params(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, tokens[0].Uint256.Dec(), in)
	}

	for _, in := range []string{"", "abc", "-1", "+5", "0x", "0xzz", maxUint + "0"} {
		_, err := u.Params(in)
		var conv *ConversionError
		require.True(t, errors.As(err, &conv), "want ConversionError for %q, got %v", in, err)
		assert.Equal(t, "uint256", conv.Type)
	}
}

func TestParams_StringToUnsupportedType(t *testing.T) {
	_, err := unitWith("string").Params("hello")
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), "convert hello to type: string failed")

	_, err = unitWith("bytes32").Params("0x01")
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestParams_MultiSigConstructor(t *testing.T) {
	doc, err := ParseDocument([]byte(multiSigConstructor))
	require.NoError(t, err)

	args := mustArgs(t, `[["`+ownerA+`", "`+ownerB+`"], "2", true]`)
	tokens, err := doc.Constructor.Params(args)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.Equal(t, ArrayToken([]Token{
		AddressToken(common.HexToAddress(ownerA)),
		AddressToken(common.HexToAddress(ownerB)),
	}), tokens[0])
	assert.Equal(t, Uint256Token(uint256.NewInt(2)), tokens[1])
	assert.Equal(t, BoolToken(true), tokens[2])

	tokens, err = doc.Constructor.Params(mustArgs(t, `[[], 2, false]`))
	require.NoError(t, err)
	assert.Equal(t, []Token{ArrayToken([]Token{}), UintToken(2), BoolToken(false)}, tokens)
}

func TestParams_NestedArrays(t *testing.T) {
	tokens, err := unitWith("uint256[][]").Params(mustArgs(t, `[[[1, 2], ["3"]]]`))
	require.NoError(t, err)
	want := ArrayToken([]Token{
		ArrayToken([]Token{UintToken(1), UintToken(2)}),
		ArrayToken([]Token{Uint256Token(uint256.NewInt(3))}),
	})
	assert.Equal(t, []Token{want}, tokens)
}

func TestParams_ArrayElementErrors(t *testing.T) {
	u := unitWith("address[]")

	_, err := u.Params(mustArgs(t, `[[null]]`))
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), "Null and Map types are unsupported")

	_, err = u.Params(mustArgs(t, `[[{"a": 1}]]`))
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), `data: {"a":1}`)

	_, err = u.Params(mustArgs(t, `[["`+ownerA+`", "0x12"]]`))
	var conv *ConversionError
	assert.True(t, errors.As(err, &conv))

	_, err = unitWith("uint256", "bool").Params(mustArgs(t, `[1.5, true]`))
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), "f64 is not supported")
}

func TestTokenString(t *testing.T) {
	tok := ArrayToken([]Token{BoolToken(true), UintToken(3), Uint256Token(uint256.NewInt(9))})
	assert.Equal(t, "Array([Bool(true), Uint(3), Uint256(9)])", tok.String())
}
