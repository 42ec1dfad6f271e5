package contracts

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	abiExt = ".abi"
	binExt = ".bin"
)

// Store resolves compiled contracts by name from a directory holding
// <name>.abi and <name>.bin files.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) ABI(name string) ([]byte, error) {
	return s.read(name, abiExt)
}

// Bin returns the decoded creation bytecode.
func (s *Store) Bin(name string) ([]byte, error) {
	raw, err := s.read(name, binExt)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "0x")
	code, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode %s%s: %w", name, binExt, err)
	}
	return code, nil
}

func (s *Store) Encoder(name string) (*Encoder, error) {
	raw, err := s.ABI(name)
	if err != nil {
		return nil, err
	}
	return NewEncoder(raw)
}

// List returns the names of all contracts with an ABI file, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read contracts dir: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != abiExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), abiExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) read(name, ext string) ([]byte, error) {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return nil, invalidParam("invalid contract name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+ext))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s%s", ErrContractNotFound, name, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s%s: %w", name, ext, err)
	}
	return data, nil
}
