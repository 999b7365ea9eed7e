package descriptor

import "github.com/ethereum/go-ethereum/accounts/abi"

// Entry types recognised in an ABI entry list
const (
	TypeConstructor = "constructor"
	TypeFunction    = "function"
	TypeEvent       = "event"
	TypeFallback    = "fallback"
	TypeReceive     = "receive"
	TypeError       = "error"
)

// State mutability classifiers
const (
	MutabilityPure       = "pure"
	MutabilityView       = "view"
	MutabilityNonpayable = "nonpayable"
	MutabilityPayable    = "payable"
)

// A single typed input or output. Tuple members live in Components.
type Parameter = abi.ArgumentMarshaling

// In-memory representation of a constructor entry
type Constructor struct {
	Inputs          []Parameter
	StateMutability string
	Payable         bool
}

// In-memory representation of a function entry
type Function struct {
	Name            string
	Inputs          []Parameter
	Outputs         []Parameter
	StateMutability string
	Constant        bool
	Payable         bool
}

// In-memory representation of an event entry
type Event struct {
	Name      string
	Inputs    []Parameter
	Anonymous bool
}

// The typed contents of one ABI entry list, in declaration order.
type Entries struct {
	Constructors []*Constructor
	Functions    []*Function
	Events       []*Event
}

// A Function decorated with everything a template needs to emit a binding for it.
type Method struct {
	*Function

	SingleReturnValue bool
	HasReturnValue    bool
	// UniqueName is Name, suffixed with an ordinal when Name is overloaded
	UniqueName        string
	FunctionSignature string
	Selector          string
}

// The render context for one descriptor file
type Context struct {
	ContractName string
	Ctor         *Constructor
	Methods      []*Method
	Events       []*Event

	NetworkID      uint64
	NetworkAddress string // Checksummed, empty if the artifact has no deployment on NetworkID
}

// EmptyConstructor is substituted when an ABI declares no constructor.
func EmptyConstructor() *Constructor {
	return &Constructor{
		Inputs:          []Parameter{},
		StateMutability: MutabilityNonpayable,
	}
}
