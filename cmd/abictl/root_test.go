package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	valueStorage = "../../internal/contracts/testdata/ValueStorage.abi"
	multiSig     = "../../internal/contracts/testdata/MultiSigWallet.abi"
	multiSigBin  = "../../internal/contracts/testdata/MultiSigWallet.bin"
	owner        = "0x2222222222222222222222222222222222222222"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", valueStorage)
	require.NoError(t, err)
	assert.Equal(t, "constructor()\nretrieve() returns (uint256) view\nstore(uint256 num) nonpayable\n", out)
}

func TestParams(t *testing.T) {
	out, err := run(t, "params", multiSig, "--args", `[["`+owner+`"], 2, true]`)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Array([Address("))
	assert.Equal(t, "Uint(2)", lines[1])
	assert.Equal(t, "Bool(true)", lines[2])
}

func TestParams_ArityMismatch(t *testing.T) {
	_, err := run(t, "params", valueStorage, "store", "--args", `[]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params of abi parse failed")
}

func TestEncode_Call(t *testing.T) {
	out, err := run(t, "encode", valueStorage, "store", "--args", `["0x2a"]`)
	require.NoError(t, err)
	out = strings.TrimSpace(out)
	assert.Len(t, out, 2+2*(4+32))
	assert.True(t, strings.HasSuffix(out, "2a"))
}

func TestEncode_ConstructorWithBin(t *testing.T) {
	bare, err := run(t, "encode", multiSig, "--args", `[["`+owner+`"], "1", false]`)
	require.NoError(t, err)
	withBin, err := run(t, "encode", multiSig, "--bin", multiSigBin, "--args", `[["`+owner+`"], "1", false]`)
	require.NoError(t, err)

	bare, withBin = strings.TrimSpace(bare), strings.TrimSpace(withBin)
	assert.Len(t, bare, 2+2*5*32)
	assert.True(t, strings.HasSuffix(withBin, bare[2:]))
	assert.Greater(t, len(withBin), len(bare))
}

func TestEncode_UnknownFunction(t *testing.T) {
	_, err := run(t, "encode", valueStorage, "burn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function not found in abi")
}
