package contract

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CallBackend executes read-only calls. *chain.Client implements it.
type CallBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// Caller calls read-only (view/pure) functions of one contract.
type Caller struct {
	backend CallBackend
	address common.Address
	abi     abi.ABI
}

// NewCaller binds a Caller to the contract at address.
func NewCaller(backend CallBackend, address common.Address, a abi.ABI) *Caller {
	return &Caller{backend: backend, address: address, abi: a}
}

// Address returns the bound contract address.
func (c *Caller) Address() common.Address { return c.address }

// Call packs args, runs eth_call against the latest block and unpacks the
// outputs of method.
func (c *Caller) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("function %q not found in ABI", method)
	}
	if !m.IsConstant() {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", method, m.StateMutability)
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	to := c.address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	if len(out) == 0 && len(m.Outputs) > 0 {
		return nil, fmt.Errorf("%s returned no data: is %s a contract on this network?", method, c.address.Hex())
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return values, nil
}

// ParseArgs converts command-line strings to the Go values inputs expects.
// Only elementary types are supported.
func ParseArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(raw))
	}
	out := make([]any, len(raw))
	for i, in := range inputs {
		v, err := parseArg(in.Type, strings.TrimSpace(raw[i]))
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s %s): %w", i, in.Type.String(), in.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil

	case abi.BoolTy:
		return strconv.ParseBool(s)

	case abi.StringTy:
		return s, nil

	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %q for unsigned type", s)
		}
		limit := t.Size
		if t.T == abi.IntTy {
			limit--
		}
		if n.BitLen() > limit {
			return nil, fmt.Errorf("%q overflows %s", s, t.String())
		}
		return sizedInt(t, n), nil

	case abi.BytesTy:
		return hex.DecodeString(strings.TrimPrefix(s, "0x"))

	case abi.FixedBytesTy:
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit %s", len(b), t.String())
		}
		if t.Size == 32 {
			var word [32]byte
			copy(word[:], b)
			return word, nil
		}
		return nil, fmt.Errorf("unsupported type %s", t.String())
	}
	return nil, fmt.Errorf("unsupported type %s", t.String())
}

// sizedInt returns n as the Go type go-ethereum packs for t.
func sizedInt(t abi.Type, n *big.Int) any {
	if t.T == abi.UintTy {
		switch t.Size {
		case 8:
			return uint8(n.Uint64())
		case 16:
			return uint16(n.Uint64())
		case 32:
			return uint32(n.Uint64())
		case 64:
			return n.Uint64()
		}
		return n
	}
	switch t.Size {
	case 8:
		return int8(n.Int64())
	case 16:
		return int16(n.Int64())
	case 32:
		return int32(n.Int64())
	case 64:
		return n.Int64()
	}
	return n
}

// FormatValue renders a decoded value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case [32]byte:
		return "0x" + hex.EncodeToString(x[:])
	case *big.Int:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}
