// Package typemap maps Solidity ABI type tags to the TypeScript types exposed by the generated
// bindings.
//
// The mapping depends on which Ethereum library the bindings are compiled against: ethers
// auto-converts small integer return values to numbers, web3 keeps them as BigNumber.
package typemap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	ErrUnsupportedType = errors.New("unsupported abi type")
	ErrInvalidBackend  = errors.New("invalid backend")
)

// ParamKind is the position a type appears in
type ParamKind int

const (
	Input ParamKind = iota
	Output
)

func (k ParamKind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

// Backend is the runtime library the generated code binds to
type Backend string

const (
	Web3   Backend = "web3"
	Ethers Backend = "ethers"

	DefaultBackend = Web3
)

// ParseBackend validates a backend name
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case Web3, Ethers:
		return b, nil
	}
	return "", errors.WithHintf(errors.Wrapf(ErrInvalidBackend, "'%s'", s), "choose one of '%s' or '%s'", Web3, Ethers)
}

const (
	unionType  = "number|BigNumber"
	numberType = "number"
)

type rule struct {
	re     *regexp.Regexp
	tsType string
}

var (
	trailingArray = regexp.MustCompile(`\[\d*\]$`)
	tupleType     = regexp.MustCompile(`^tuple$`)
	objectType    = regexp.MustCompile(`^{.*}$`)

	// web3 and ethers both accept plain numbers for small integer arguments
	smallIntInput = rule{regexp.MustCompile(`^u?int(8|16|32)?$`), unionType}
	// ethers converts small integer results to numbers
	smallIntEthersOutput = rule{regexp.MustCompile(`^u?int(8|16|32|48)?$`), numberType}

	baseRules = []rule{
		{regexp.MustCompile(`^string$`), "string"},
		{regexp.MustCompile(`^address$`), "string"},
		{regexp.MustCompile(`^bool$`), "boolean"},
		{regexp.MustCompile(`^u?int\d*$`), "BigNumber"},
		{regexp.MustCompile(`^bytes\d*$`), "string"},
	}
)

// Mapper converts ABI types for one backend
type Mapper struct {
	backend Backend
}

func New(backend Backend) *Mapper {
	return &Mapper{backend: backend}
}

func (m *Mapper) Backend() Backend {
	return m.backend
}

// Map returns the TypeScript type for an ABI type tag. components are only consulted for tuples.
func (m *Mapper) Map(kind ParamKind, solType string, components []abi.ArgumentMarshaling) (string, error) {
	if trailingArray.MatchString(solType) {
		itemType, err := m.Map(kind, trailingArray.ReplaceAllString(solType, ""), components)
		if err != nil {
			return "", err
		}
		if itemType == unionType || objectType.MatchString(itemType) {
			return fmt.Sprintf("Array<%s>", itemType), nil
		}
		return itemType + "[]", nil
	}

	for _, r := range m.rules(kind) {
		if r.re.MatchString(solType) {
			return r.tsType, nil
		}
	}

	if tupleType.MatchString(solType) {
		fields := make([]string, 0, len(components))
		for _, c := range components {
			t, err := m.Map(kind, c.Type, c.Components)
			if err != nil {
				return "", err
			}
			fields = append(fields, fmt.Sprintf("%s: %s", c.Name, t))
		}
		return "{" + strings.Join(fields, ",") + "}", nil
	}

	return "", errors.Wrapf(ErrUnsupportedType, "unknown Solidity type found: %s", solType)
}

// Rules in priority order for a position
func (m *Mapper) rules(kind ParamKind) []rule {
	out := make([]rule, 0, len(baseRules)+2)
	if m.backend == Ethers && kind == Output {
		out = append(out, smallIntEthersOutput)
	}
	if kind == Input {
		out = append(out, smallIntInput)
	}
	return append(out, baseRules...)
}
