package descriptor

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jshufro/abi-gen/internal/typemap"
)

var ErrOverloadConflict = errors.New("overloaded method name conflict")

// Normalize builds the render context for one contract. entries is not modified.
func Normalize(contractName string, entries *Entries) (*Context, error) {
	out := &Context{
		ContractName: contractName,
		Methods:      make([]*Method, 0, len(entries.Functions)),
		Events:       entries.Events,
	}

	// Only the first constructor means anything. ABIs without one still have the implicit default.
	if len(entries.Constructors) > 0 {
		out.Ctor = entries.Constructors[0]
	} else {
		out.Ctor = EmptyConstructor()
	}
	if _, err := arguments(out.Ctor.Inputs); err != nil {
		return nil, errors.Wrapf(err, "%s constructor", contractName)
	}

	for _, e := range entries.Events {
		if _, err := arguments(e.Inputs); err != nil {
			return nil, errors.Wrapf(err, "%s event %s", contractName, e.Name)
		}
	}

	for _, f := range entries.Functions {
		m, err := newMethod(f)
		if err != nil {
			return nil, errors.Wrapf(err, "%s method %s", contractName, f.Name)
		}
		out.Methods = append(out.Methods, m)
	}

	if err := assignUniqueNames(out.Methods); err != nil {
		return nil, errors.Wrapf(err, "%s", contractName)
	}

	return out, nil
}

func newMethod(f *Function) (*Method, error) {
	// Auto-generated getters don't have parameter names
	fn := *f
	fn.Inputs = make([]Parameter, len(f.Inputs))
	taken := make(map[string]struct{}, len(f.Inputs))
	for _, input := range f.Inputs {
		taken[input.Name] = struct{}{}
	}
	for i, input := range f.Inputs {
		if input.Name == "" {
			name := fmt.Sprintf("index_%d", i)
			for {
				if _, ok := taken[name]; !ok {
					break
				}
				name += "_"
			}
			taken[name] = struct{}{}
			input.Name = name
		}
		fn.Inputs[i] = input
	}

	inputs, err := arguments(fn.Inputs)
	if err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	outputs, err := arguments(fn.Outputs)
	if err != nil {
		return nil, errors.Wrap(err, "outputs")
	}
	method := abi.NewMethod(fn.Name, fn.Name, abi.Function, fn.StateMutability, fn.Constant, fn.Payable, inputs, outputs)

	return &Method{
		Function:          &fn,
		SingleReturnValue: len(fn.Outputs) == 1,
		HasReturnValue:    len(fn.Outputs) != 0,
		UniqueName:        fn.Name,
		FunctionSignature: method.Sig,
		Selector:          hexutil.Encode(method.ID),
	}, nil
}

func arguments(params []Parameter) (abi.Arguments, error) {
	out := make(abi.Arguments, 0, len(params))
	for i, p := range params {
		typ, err := abi.NewType(canonicalType(p.Type), p.InternalType, canonicalComponents(p.Components))
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parameter %d (%s)", i, p.Type), typemap.ErrUnsupportedType)
		}
		out = append(out, abi.Argument{Name: p.Name, Type: typ, Indexed: p.Indexed})
	}
	return out, nil
}

var bareInteger = regexp.MustCompile(`^(u?int)((\[\d*\])*)$`)

// canonicalType expands the uint and int aliases to their 256-bit form, arrays included
func canonicalType(t string) string {
	return bareInteger.ReplaceAllString(t, "${1}256${2}")
}

// go-ethereum holds tuple member names to Go identifier rules, which Solidity names like `$` or `_`
// break. Member names don't contribute to the canonical type, so they are replaced positionally.
func canonicalComponents(components []Parameter) []Parameter {
	if components == nil {
		return nil
	}
	out := make([]Parameter, len(components))
	for i, c := range components {
		c.Name = fmt.Sprintf("field_%d", i)
		c.Type = canonicalType(c.Type)
		c.Components = canonicalComponents(c.Components)
		out[i] = c
	}
	return out
}

// assignUniqueNames renames overloaded methods to name1, name2, ... ordered by signature, so the
// result only depends on the set of overloads and not on declaration order.
func assignUniqueNames(methods []*Method) error {
	sorted := make([]*Method, len(methods))
	copy(sorted, methods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FunctionSignature < sorted[j].FunctionSignature
	})

	taken := make(map[string]struct{}, len(methods))
	groups := make(map[string][]*Method)
	names := make([]string, 0)
	for _, m := range sorted {
		taken[m.Name] = struct{}{}
		if _, ok := groups[m.Name]; !ok {
			names = append(names, m.Name)
		}
		groups[m.Name] = append(groups[m.Name], m)
	}

	for _, name := range names {
		group := groups[name]
		if len(group) < 2 {
			continue
		}
		for i, m := range group {
			unique := fmt.Sprintf("%s%d", name, i+1)
			if _, ok := taken[unique]; ok {
				return errors.Wrapf(ErrOverloadConflict, "failed to rename overloaded method '%s' to '%s', a method with this name already exists", name, unique)
			}
			taken[unique] = struct{}{}
			m.UniqueName = unique
		}
	}

	return nil
}
