package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrABIParse marks a malformed ABI document or one without a constructor.
	ErrABIParse = errors.New("abi parse error")

	// ErrInvalidParam marks caller input that cannot become call parameters.
	ErrInvalidParam = errors.New("input parameter is invalid")

	// ErrContractNotFound is returned by Store when no ABI/BIN file exists for a name.
	ErrContractNotFound = errors.New("contract not found")
)

func abiParseError(msg string) error {
	return fmt.Errorf("%w: %s", ErrABIParse, msg)
}

func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w, %s", ErrInvalidParam, fmt.Sprintf(format, args...))
}

// InvalidParam builds an ErrInvalidParam error for callers outside the package.
func InvalidParam(msg string) error {
	return invalidParam("%s", msg)
}

// ConversionError wraps a failure of the address or uint256 parser.
type ConversionError struct {
	Value string
	Type  string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("parse %q as %s: %v", e.Value, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IsClientError reports whether err was caused by the caller's input rather
// than by the chain or the filesystem.
func IsClientError(err error) bool {
	var conv *ConversionError
	return errors.Is(err, ErrInvalidParam) || errors.Is(err, ErrABIParse) || errors.As(err, &conv)
}
