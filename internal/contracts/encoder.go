package contracts

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Encoder turns loosely typed JSON arguments into call data for one contract.
// The document drives parameter coercion; go-ethereum's parsed ABI does the packing.
type Encoder struct {
	doc *Document
	abi abi.ABI
}

func NewEncoder(raw []byte) (*Encoder, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, abiParseError(err.Error())
	}
	return &Encoder{doc: doc, abi: parsed}, nil
}

func (e *Encoder) Document() *Document { return e.doc }

// EncodeConstructor returns the packed constructor arguments, to be appended
// to the contract bytecode.
func (e *Encoder) EncodeConstructor(args any) ([]byte, error) {
	tokens, err := e.doc.Constructor.Params(args)
	if err != nil {
		return nil, err
	}
	values, err := BindArguments(e.abi.Constructor.Inputs, tokens)
	if err != nil {
		return nil, err
	}
	data, err := e.abi.Pack("", values...)
	if err != nil {
		return nil, invalidParam("pack constructor: %v", err)
	}
	return data, nil
}

// EncodeCall returns the 4-byte selector of fn followed by its packed arguments.
func (e *Encoder) EncodeCall(fn string, args any) ([]byte, error) {
	unit, err := e.doc.Lookup(fn)
	if err != nil {
		return nil, err
	}
	method, ok := e.abi.Methods[fn]
	if !ok {
		return nil, invalidParam("function not found in abi")
	}
	tokens, err := unit.Params(args)
	if err != nil {
		return nil, err
	}
	values, err := BindArguments(method.Inputs, tokens)
	if err != nil {
		return nil, err
	}
	data, err := e.abi.Pack(fn, values...)
	if err != nil {
		return nil, invalidParam("pack %s: %v", fn, err)
	}
	return data, nil
}

// Unpack decodes the return data of fn.
func (e *Encoder) Unpack(fn string, data []byte) ([]any, error) {
	method, ok := e.abi.Methods[fn]
	if !ok {
		return nil, invalidParam("function not found in abi")
	}
	return method.Outputs.Unpack(data)
}
