package contract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABIEntry is one ABI entry (function or event) in the JSON ABI layout.
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Indexed    bool       `json:"indexed,omitempty"`
	Components []ABIParam `json:"components,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

var headerRe = regexp.MustCompile(`^(event|function)\s+(\w+)\s*\(`)

// ParseHumanABI parses human-readable ABI lines such as
//
//	event Transfer(address indexed from, address indexed to, uint256 value)
//	function getMinBetAmount() external view returns (uint256)
//
// into a go-ethereum ABI.
func ParseHumanABI(lines []string) (abi.ABI, error) {
	entries, err := ParseHumanEntries(lines)
	if err != nil {
		return abi.ABI{}, err
	}
	return Compile(entries)
}

// ParseHumanEntries parses human-readable ABI lines into JSON ABI entries.
func ParseHumanEntries(lines []string) ([]ABIEntry, error) {
	entries := make([]ABIEntry, 0, len(lines))
	for _, line := range lines {
		e, err := ParseHumanLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Compile turns JSON ABI entries into a go-ethereum ABI.
func Compile(entries []ABIEntry) (abi.ABI, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return abi.ABI{}, err
	}
	parsed, err := abi.JSON(strings.NewReader(string(raw)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("compiling abi: %w", err)
	}
	return parsed, nil
}

// ParseHumanLine parses a single event or function declaration.
func ParseHumanLine(line string) (ABIEntry, error) {
	src := strings.TrimSuffix(strings.TrimSpace(line), ";")
	m := headerRe.FindStringSubmatchIndex(src)
	if m == nil {
		return ABIEntry{}, fmt.Errorf("invalid abi line %q: expected event or function declaration", line)
	}
	kind, name := src[m[2]:m[3]], src[m[4]:m[5]]

	open := m[1] - 1
	closing := matchParen(src, open)
	if closing < 0 {
		return ABIEntry{}, fmt.Errorf("invalid abi line %q: unbalanced parentheses", line)
	}

	inputs, err := parseParams(src[open+1:closing], kind == "event")
	if err != nil {
		return ABIEntry{}, fmt.Errorf("%s %s: %w", kind, name, err)
	}
	entry := ABIEntry{Name: name, Type: kind, Inputs: inputs}
	if kind == "event" {
		if tail := strings.TrimSpace(src[closing+1:]); tail == "anonymous" {
			entry.Anonymous = true
		} else if tail != "" {
			return ABIEntry{}, fmt.Errorf("event %s: unexpected %q", name, tail)
		}
		return entry, nil
	}

	entry.StateMutability = "nonpayable"
	tail := strings.TrimSpace(src[closing+1:])
	for tail != "" {
		var word string
		word, tail, _ = strings.Cut(tail, " ")
		tail = strings.TrimSpace(tail)
		switch {
		case word == "view" || word == "pure" || word == "payable":
			entry.StateMutability = word
		case word == "external" || word == "public" || word == "virtual" || word == "override":
		case strings.HasPrefix(word, "returns"):
			rest := strings.TrimSpace(strings.TrimPrefix(word+" "+tail, "returns"))
			if !strings.HasPrefix(rest, "(") {
				return ABIEntry{}, fmt.Errorf("function %s: returns without parameter list", name)
			}
			end := matchParen(rest, 0)
			if end < 0 {
				return ABIEntry{}, fmt.Errorf("function %s: unbalanced returns list", name)
			}
			if entry.Outputs, err = parseParams(rest[1:end], false); err != nil {
				return ABIEntry{}, fmt.Errorf("function %s returns: %w", name, err)
			}
			tail = strings.TrimSpace(rest[end+1:])
		default:
			return ABIEntry{}, fmt.Errorf("function %s: unexpected %q", name, word)
		}
	}
	return entry, nil
}

// parseParams parses a comma separated parameter list. With nameAll, unnamed
// parameters get positional names; event inputs and tuple components need
// them.
func parseParams(list string, nameAll bool) ([]ABIParam, error) {
	parts := splitParams(strings.TrimSpace(list))
	params := make([]ABIParam, 0, len(parts))
	for i, part := range parts {
		p, err := parseParam(part)
		if err != nil {
			return nil, err
		}
		if p.Name == "" && nameAll {
			p.Name = fmt.Sprintf("arg%d", i)
		}
		params = append(params, p)
	}
	return params, nil
}

func parseParam(s string) (ABIParam, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ABIParam{}, fmt.Errorf("empty parameter")
	}

	var (
		p    ABIParam
		rest string
	)
	if strings.HasPrefix(s, "tuple(") {
		s = strings.TrimPrefix(s, "tuple")
	}
	if strings.HasPrefix(s, "(") {
		end := matchParen(s, 0)
		if end < 0 {
			return ABIParam{}, fmt.Errorf("unbalanced tuple %q", s)
		}
		comps, err := parseParams(s[1:end], true)
		if err != nil {
			return ABIParam{}, err
		}
		suffix, after := arraySuffix(s[end+1:])
		p = ABIParam{Type: "tuple" + suffix, Components: comps}
		rest = after
	} else {
		typ, after, _ := strings.Cut(s, " ")
		p.Type = normalizeType(typ)
		rest = after
	}

	for _, tok := range strings.Fields(rest) {
		switch tok {
		case "indexed":
			p.Indexed = true
		case "memory", "calldata", "storage", "payable":
		default:
			if p.Name != "" {
				return ABIParam{}, fmt.Errorf("unexpected %q in parameter %q", tok, s)
			}
			p.Name = tok
		}
	}
	return p, nil
}

// splitParams splits on top-level commas only.
func splitParams(params string) []string {
	var (
		result []string
		depth  int
		start  int
	)
	for i, r := range params {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				result = append(result, strings.TrimSpace(params[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(params[start:]); last != "" {
		result = append(result, last)
	}
	return result
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// arraySuffix splits leading "[]" / "[N]" groups off s.
func arraySuffix(s string) (suffix, rest string) {
	for strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			break
		}
		suffix += s[:end+1]
		s = s[end+1:]
	}
	return suffix, s
}

// normalizeType expands the uint/int aliases, keeping any array suffix.
func normalizeType(typ string) string {
	base, suffix := typ, ""
	if i := strings.IndexByte(typ, '['); i >= 0 {
		base, suffix = typ[:i], typ[i:]
	}
	switch base {
	case "uint":
		base = "uint256"
	case "int":
		base = "int256"
	}
	return base + suffix
}
