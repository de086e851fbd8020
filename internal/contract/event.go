package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrNoTopics is returned for logs without a topic0.
	ErrNoTopics = errors.New("log has no topics")
	// ErrTopicMismatch is returned when topic0 is not the event ID.
	ErrTopicMismatch = errors.New("topic0 does not match event")
	// ErrTopicCount is returned when the number of topics does not match
	// the indexed inputs.
	ErrTopicCount = errors.New("topic count does not match indexed inputs")
	// ErrArgType is returned by the Event accessors on a type mismatch.
	ErrArgType = errors.New("argument type mismatch")
	// ErrNoArg is returned by the Event accessors for an unknown name.
	ErrNoArg = errors.New("no such argument")
)

// Arg is one decoded event argument.
type Arg struct {
	Name    string
	Type    string
	Indexed bool
	Value   any
}

// Event is a decoded log.
type Event struct {
	Name string
	Log  types.Log
	Args []Arg // declaration order
}

// EventDecoder decodes logs of a single event.
type EventDecoder struct {
	event abi.Event
}

// NewEventDecoder returns a decoder for the event called name in a.
func NewEventDecoder(a abi.ABI, name string) (*EventDecoder, error) {
	ev, ok := a.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %q not found in abi", name)
	}
	return &EventDecoder{event: ev}, nil
}

// BuiltinEventDecoder returns a decoder for an event of a built-in ABI.
func BuiltinEventDecoder(builtin, name string) (*EventDecoder, error) {
	a, err := BuiltinABI(builtin)
	if err != nil {
		return nil, err
	}
	return NewEventDecoder(a, name)
}

// Name returns the event name.
func (d *EventDecoder) Name() string { return d.event.Name }

// Signature returns the canonical signature, e.g. "Transfer(address,address,uint256)".
func (d *EventDecoder) Signature() string { return d.event.Sig }

// Topic returns the event ID used as topic0.
func (d *EventDecoder) Topic() common.Hash { return d.event.ID }

// Decode parses lg into an Event.
func (d *EventDecoder) Decode(lg types.Log) (Event, error) {
	if len(lg.Topics) == 0 {
		return Event{}, ErrNoTopics
	}
	if lg.Topics[0] != d.event.ID {
		return Event{}, fmt.Errorf("%w %s: got %s", ErrTopicMismatch, d.event.Name, lg.Topics[0].Hex())
	}

	var indexed abi.Arguments
	for _, in := range d.event.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(lg.Topics)-1 != len(indexed) {
		return Event{}, fmt.Errorf("%w: %s has %d indexed inputs, log has %d topics",
			ErrTopicCount, d.event.Name, len(indexed), len(lg.Topics)-1)
	}

	topicValues := make(map[string]any, len(indexed))
	if err := abi.ParseTopicsIntoMap(topicValues, indexed, lg.Topics[1:]); err != nil {
		return Event{}, fmt.Errorf("decoding %s topics: %w", d.event.Name, err)
	}
	dataValues, err := d.event.Inputs.NonIndexed().UnpackValues(lg.Data)
	if err != nil {
		return Event{}, fmt.Errorf("decoding %s data: %w", d.event.Name, err)
	}

	ev := Event{Name: d.event.Name, Log: lg, Args: make([]Arg, 0, len(d.event.Inputs))}
	next := 0
	for _, in := range d.event.Inputs {
		arg := Arg{Name: in.Name, Type: in.Type.String(), Indexed: in.Indexed}
		if in.Indexed {
			arg.Value = topicValues[in.Name]
		} else {
			arg.Value = dataValues[next]
			next++
		}
		ev.Args = append(ev.Args, arg)
	}
	return ev, nil
}

// Value returns the raw value of the argument called name.
func (e Event) Value(name string) (any, error) {
	for _, a := range e.Args {
		if a.Name == name {
			return a.Value, nil
		}
	}
	return nil, fmt.Errorf("%w %q in %s", ErrNoArg, name, e.Name)
}

// Uint returns an unsigned integer argument as a big.Int.
func (e Event) Uint(name string) (*big.Int, error) {
	v, err := e.Value(name)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	}
	return nil, fmt.Errorf("%w: %s.%s is %T, not an integer", ErrArgType, e.Name, name, v)
}

// Address returns an address argument.
func (e Event) Address(name string) (common.Address, error) {
	v, err := e.Value(name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s.%s is %T, not an address", ErrArgType, e.Name, name, v)
	}
	return addr, nil
}

// UintSlice returns a uint256[] argument.
func (e Event) UintSlice(name string) ([]*big.Int, error) {
	v, err := e.Value(name)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is %T, not uint256[]", ErrArgType, e.Name, name, v)
	}
	return s, nil
}
