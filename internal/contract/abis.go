package contract

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrUnknownBuiltin is returned for an unregistered built-in ID.
var ErrUnknownBuiltin = errors.New("unknown builtin abi")

// BuiltinKind describes a contract whose ABI ships with the binary. New
// built-ins register themselves via init() in builtins.go.
type BuiltinKind struct {
	ID          string   // machine key, e.g. "gamble", "erc20"
	Name        string   // human label
	Description string   // one-line summary shown in `floppy abi list`
	Human       []string // human-readable ABI lines
}

// ABI compiles the built-in's human-readable ABI.
func (b BuiltinKind) ABI() (abi.ABI, error) {
	parsed, err := ParseHumanABI(b.Human)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("builtin %s: %w", b.ID, err)
	}
	return parsed, nil
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the global registry.
// Call this from init().
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// BuiltinABI returns the compiled ABI of a built-in.
func BuiltinABI(id string) (abi.ABI, error) {
	b, ok := builtinRegistry[id]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%w: %q", ErrUnknownBuiltin, id)
	}
	return b.ABI()
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
