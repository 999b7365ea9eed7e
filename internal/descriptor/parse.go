package descriptor

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var (
	ErrABINotFound  = errors.New("abi not found")
	ErrInvalidEntry = errors.New("invalid abi entry")
	ErrInvalidJSON  = errors.New("invalid descriptor encoding")
)

const shapeHint = "make sure your ABI file is either an array with ABI entries, a truffle artifact or a 0x sol-compiler artifact"

// A parsed descriptor file. Entries is the typed ABI, raw is kept around for artifact metadata.
type Document struct {
	File    string
	Shape   string
	Entries *Entries

	raw any
}

// shape is one of the container layouts an ABI entry list can be found in. extract must not
// mutate its argument.
type shape struct {
	name    string
	extract func(v any) ([]any, bool)
}

// Tried in order, first match wins
var shapes = []shape{
	{name: "abi", extract: asList},
	{name: "truffle", extract: atPath("abi")},
	{name: "0x", extract: atPath("compilerOutput", "abi")},
}

type rawEntry struct {
	Type            string      `json:"type"`
	Name            string      `json:"name"`
	Inputs          []Parameter `json:"inputs"`
	Outputs         []Parameter `json:"outputs"`
	StateMutability string      `json:"stateMutability"`
	Constant        bool        `json:"constant"`
	Payable         bool        `json:"payable"`
	Anonymous       bool        `json:"anonymous"`
}

// Parse decodes the contents of a descriptor file and extracts its typed entry list.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func Parse(file string, data []byte) (*Document, error) {
	v, err := decode(file, data)
	if err != nil {
		return nil, err
	}

	list, shapeName, err := Extract(v)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", file)
	}

	entries, err := ParseEntries(list)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", file)
	}

	return &Document{
		File:    file,
		Shape:   shapeName,
		Entries: entries,
		raw:     v,
	}, nil
}

func decode(file string, data []byte) (any, error) {
	var v any
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "error decoding %s", file), ErrInvalidJSON)
		}
	default:
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "error decoding %s", file), ErrInvalidJSON)
		}
	}
	return v, nil
}

// Extract finds the ABI entry list in a decoded descriptor and names the shape it was found in.
func Extract(v any) ([]any, string, error) {
	for _, s := range shapes {
		if list, ok := s.extract(v); ok {
			return list, s.name, nil
		}
	}
	return nil, "", errors.WithHint(ErrABINotFound, shapeHint)
}

// ParseEntries converts an untyped entry list into typed entries. Every entry is validated here,
// so nothing downstream sees a half-formed ABI.
func ParseEntries(list []any) (*Entries, error) {
	out := &Entries{
		Constructors: make([]*Constructor, 0, 1),
		Functions:    make([]*Function, 0, len(list)),
		Events:       make([]*Event, 0),
	}

	for i, item := range list {
		raw, err := parseRawEntry(item)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}

		switch raw.Type {
		case TypeConstructor:
			mutability, err := stateMutability(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			out.Constructors = append(out.Constructors, &Constructor{
				Inputs:          nonNil(raw.Inputs),
				StateMutability: mutability,
				Payable:         mutability == MutabilityPayable,
			})
		case TypeFunction:
			if raw.Name == "" {
				return nil, errors.Wrapf(ErrInvalidEntry, "entry %d: function without a name", i)
			}
			mutability, err := stateMutability(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d (%s)", i, raw.Name)
			}
			out.Functions = append(out.Functions, &Function{
				Name:            raw.Name,
				Inputs:          nonNil(raw.Inputs),
				Outputs:         nonNil(raw.Outputs),
				StateMutability: mutability,
				Constant:        mutability == MutabilityView || mutability == MutabilityPure,
				Payable:         mutability == MutabilityPayable,
			})
		case TypeEvent:
			if raw.Name == "" {
				return nil, errors.Wrapf(ErrInvalidEntry, "entry %d: event without a name", i)
			}
			out.Events = append(out.Events, &Event{
				Name:      raw.Name,
				Inputs:    nonNil(raw.Inputs),
				Anonymous: raw.Anonymous,
			})
		case TypeFallback, TypeReceive, TypeError:
			// Not exposed to templates
		default:
			return nil, errors.Wrapf(ErrInvalidEntry, "entry %d: unknown entry type '%s'", i, raw.Type)
		}
	}

	return out, nil
}

func parseRawEntry(item any) (*rawEntry, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidEntry, "expected an object, got %T", item)
	}

	// Round-trip through json so both the json and yaml decoders land on the same typed entry
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "error encoding entry"), ErrInvalidEntry)
	}
	raw := new(rawEntry)
	if err := json.Unmarshal(b, raw); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "error decoding entry"), ErrInvalidEntry)
	}

	if raw.Type == "" {
		raw.Type = TypeFunction
	}
	return raw, nil
}

// stateMutability returns the declared mutability, or derives it from the legacy
// constant/payable flags when the ABI predates stateMutability.
func stateMutability(raw *rawEntry) (string, error) {
	switch raw.StateMutability {
	case MutabilityPure, MutabilityView, MutabilityNonpayable, MutabilityPayable:
		return raw.StateMutability, nil
	case "":
	default:
		return "", errors.Wrapf(ErrInvalidEntry, "unknown stateMutability '%s'", raw.StateMutability)
	}

	if raw.Payable {
		return MutabilityPayable, nil
	}
	if raw.Constant {
		return MutabilityView, nil
	}
	return MutabilityNonpayable, nil
}

// NetworkAddress returns the checksummed address an artifact records for networkID, or
// the empty string when there is none. Bare ABI lists never carry one.
func (d *Document) NetworkAddress(networkID uint64) (string, error) {
	id := strconv.FormatUint(networkID, 10)

	for _, path := range [][]string{
		{"networks", id, "address"},
		{"compilerOutput", "networks", id, "address"},
	} {
		v, ok := lookup(d.raw, path...)
		if !ok {
			continue
		}
		address, ok := v.(string)
		if !ok || !common.IsHexAddress(address) {
			return "", errors.Newf("%s: invalid address for network %d: %v", d.File, networkID, v)
		}
		return common.HexToAddress(address).Hex(), nil
	}

	return "", nil
}

func asList(v any) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

func atPath(path ...string) func(any) ([]any, bool) {
	return func(v any) ([]any, bool) {
		found, ok := lookup(v, path...)
		if !ok {
			return nil, false
		}
		return asList(found)
	}
}

// lookup walks nested objects by key. yaml decodes objects with non-string keys (e.g. network ids)
// into map[any]any, so both map flavours are accepted.
func lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		switch m := cur.(type) {
		case map[string]any:
			next, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = next
		case map[any]any:
			var found bool
			for k, next := range m {
				if fmt.Sprint(k) == key {
					cur = next
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

func nonNil(p []Parameter) []Parameter {
	if p == nil {
		return []Parameter{}
	}
	return p
}
