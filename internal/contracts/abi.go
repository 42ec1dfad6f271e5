package contracts

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// UnitType is the discriminant of an ABI entry.
type UnitType string

const (
	UnitEvent       UnitType = "event"
	UnitError       UnitType = "error"
	UnitConstructor UnitType = "constructor"
	UnitFunction    UnitType = "function"
	UnitReceive     UnitType = "receive"
	UnitFallback    UnitType = "fallback"
)

func (t *UnitType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch v := UnitType(strings.ToLower(s)); v {
	case UnitEvent, UnitError, UnitConstructor, UnitFunction, UnitReceive, UnitFallback:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown variant %q, expected one of event, error, constructor, function, receive, fallback", s)
	}
}

// Variable is one declared input or output of an ABI unit. Only Type drives
// conversion, so a missing name or internalType decodes as the empty string.
type Variable struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	InternalType string `json:"internalType"`
}

// Unit is a single entry of an ABI document. A nil Inputs slice means the
// entry declared no "inputs" key at all, which is distinct from "inputs": [].
type Unit struct {
	Type            UnitType   `json:"type"`
	Name            string     `json:"name,omitempty"`
	Anonymous       *bool      `json:"anonymous,omitempty"`
	Inputs          []Variable `json:"inputs"`
	Outputs         []Variable `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
}

// Document is the queryable form of a contract ABI: its constructor and its
// functions by name. Events, errors, receive and fallback entries are dropped.
type Document struct {
	Constructor Unit
	Functions   map[string]Unit
}

// ParseDocument decodes a raw ABI description. The document must hold a
// constructor. When two functions share a name the first one wins.
func ParseDocument(raw []byte) (*Document, error) {
	var units []Unit
	if err := json.Unmarshal(raw, &units); err != nil {
		return nil, abiParseError(err.Error())
	}
	for i, u := range units {
		if u.Type == "" {
			return nil, abiParseError(fmt.Sprintf("missing field `type` in unit %d", i))
		}
	}

	groups := make(map[UnitType][]Unit)
	for _, u := range units {
		groups[u.Type] = append(groups[u.Type], u)
	}

	ctors := groups[UnitConstructor]
	if len(ctors) == 0 {
		return nil, abiParseError("constructor not found")
	}

	doc := &Document{
		Constructor: ctors[0],
		Functions:   make(map[string]Unit, len(groups[UnitFunction])),
	}
	for _, fn := range groups[UnitFunction] {
		if _, ok := doc.Functions[fn.Name]; !ok {
			doc.Functions[fn.Name] = fn
		}
	}
	return doc, nil
}

// Function returns the unit declared under name.
func (d *Document) Function(name string) (Unit, bool) {
	u, ok := d.Functions[name]
	return u, ok
}

// Lookup is Function with the lookup failure reported as an ErrInvalidParam.
func (d *Document) Lookup(name string) (Unit, error) {
	u, ok := d.Functions[name]
	if !ok {
		return Unit{}, invalidParam("function not found in abi")
	}
	return u, nil
}

// FunctionNames lists the indexed function names in sorted order.
func (d *Document) FunctionNames() []string {
	return slices.Sorted(maps.Keys(d.Functions))
}
