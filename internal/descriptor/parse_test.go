package descriptor

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entryList = `[
	{"type": "constructor", "inputs": []},
	{"type": "function", "name": "transfer", "inputs": [{"name": "", "type": "address"}, {"name": "amount", "type": "uint256"}], "outputs": [{"type": "bool"}], "stateMutability": "nonpayable"},
	{"type": "event", "name": "Transfer", "inputs": [{"name": "from", "type": "address", "indexed": true}]}
]`

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		shape string
	}{
		{
			name:  "bare entry list",
			data:  entryList,
			shape: "abi",
		},
		{
			name:  "truffle artifact",
			data:  `{"contractName": "Token", "abi": ` + entryList + `}`,
			shape: "truffle",
		},
		{
			name:  "0x compiler artifact",
			data:  `{"schemaVersion": "2.0.0", "compilerOutput": {"abi": ` + entryList + `, "evm": {}}}`,
			shape: "0x",
		},
		{
			name:  "abi field takes precedence over compiler output",
			data:  `{"abi": ` + entryList + `, "compilerOutput": {"abi": []}}`,
			shape: "truffle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse("Token.json", []byte(tt.data))
			require.NoError(t, err)

			assert.Equal(t, tt.shape, doc.Shape)
			require.Len(t, doc.Entries.Constructors, 1)
			require.Len(t, doc.Entries.Functions, 1)
			require.Len(t, doc.Entries.Events, 1)

			f := doc.Entries.Functions[0]
			assert.Equal(t, "transfer", f.Name)
			assert.Equal(t, "address", f.Inputs[0].Type)
			assert.Equal(t, "amount", f.Inputs[1].Name)
			assert.Equal(t, "bool", f.Outputs[0].Type)
			assert.True(t, doc.Entries.Events[0].Inputs[0].Indexed)
		})
	}
}

func TestParseABINotFound(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty object", `{}`},
		{"abi is not a list", `{"abi": {"type": "function"}}`},
		{"compiler output without abi", `{"compilerOutput": {"evm": {}}}`},
		{"scalar", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("Broken.json", []byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrABINotFound))
			assert.Contains(t, err.Error(), "Broken.json")
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse("Broken.json", []byte(`[{"type": `))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJSON))
}

func TestParseEntriesValidation(t *testing.T) {
	tests := []struct {
		name string
		list []any
	}{
		{
			name: "entry is not an object",
			list: []any{"transfer(address,uint256)"},
		},
		{
			name: "unknown entry type",
			list: []any{map[string]any{"type": "modifier", "name": "onlyOwner"}},
		},
		{
			name: "unknown state mutability",
			list: []any{map[string]any{"type": "function", "name": "f", "stateMutability": "constant"}},
		},
		{
			name: "function without a name",
			list: []any{map[string]any{"type": "function", "inputs": []any{}}},
		},
		{
			name: "inputs of the wrong type",
			list: []any{map[string]any{"type": "function", "name": "f", "inputs": "address"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntries(tt.list)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEntry), "got %v", err)
		})
	}
}

func TestParseEntriesDefaults(t *testing.T) {
	list := []any{
		// No type means function
		map[string]any{"name": "owner", "inputs": []any{}, "outputs": []any{map[string]any{"type": "address"}}, "constant": true},
		map[string]any{"type": "function", "name": "deposit", "payable": true},
		map[string]any{"type": "function", "name": "withdraw"},
		map[string]any{"type": "receive", "stateMutability": "payable"},
		map[string]any{"type": "error", "name": "Unauthorized", "inputs": []any{}},
	}

	entries, err := ParseEntries(list)
	require.NoError(t, err)
	require.Len(t, entries.Functions, 3)
	assert.Empty(t, entries.Constructors)
	assert.Empty(t, entries.Events)

	assert.Equal(t, MutabilityView, entries.Functions[0].StateMutability)
	assert.True(t, entries.Functions[0].Constant)
	assert.Equal(t, MutabilityPayable, entries.Functions[1].StateMutability)
	assert.True(t, entries.Functions[1].Payable)
	assert.Equal(t, MutabilityNonpayable, entries.Functions[2].StateMutability)

	// Missing lists become empty ones so templates can range over them
	assert.NotNil(t, entries.Functions[2].Inputs)
	assert.NotNil(t, entries.Functions[2].Outputs)
}

func TestParseYAML(t *testing.T) {
	data := `
contractName: Token
abi:
  - type: function
    name: balanceOf
    stateMutability: view
    inputs:
      - name: owner
        type: address
    outputs:
      - name: ""
        type: uint256
networks:
  50:
    address: "0x1d8f8f00cfa6758d7be78336684788fb0ee0fa46"
`
	doc, err := Parse("Token.yaml", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "truffle", doc.Shape)
	require.Len(t, doc.Entries.Functions, 1)
	assert.Equal(t, "balanceOf", doc.Entries.Functions[0].Name)
	assert.Equal(t, "owner", doc.Entries.Functions[0].Inputs[0].Name)

	address, err := doc.NetworkAddress(50)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x1d8f8f00cfa6758d7be78336684788fb0ee0fa46").Hex(), address)
}

func TestNetworkAddress(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		networkID uint64
		expected  string
		wantErr   bool
	}{
		{
			name:      "truffle networks",
			data:      `{"abi": [], "networks": {"50": {"address": "0x1d8f8f00cfa6758d7be78336684788fb0ee0fa46"}}}`,
			networkID: 50,
			expected:  "0x1d8f8f00cfa6758d7be78336684788fb0ee0fa46",
		},
		{
			name:      "compiler output networks",
			data:      `{"compilerOutput": {"abi": [], "networks": {"3": {"address": "0xac2245be4c2c1e9752499bcd34861b761d62fc27"}}}}`,
			networkID: 3,
			expected:  "0xac2245be4c2c1e9752499bcd34861b761d62fc27",
		},
		{
			name:      "other network only",
			data:      `{"abi": [], "networks": {"1": {"address": "0x1d8f8f00cfa6758d7be78336684788fb0ee0fa46"}}}`,
			networkID: 50,
			expected:  "",
		},
		{
			name:      "bare list",
			data:      `[]`,
			networkID: 50,
			expected:  "",
		},
		{
			name:      "malformed address",
			data:      `{"abi": [], "networks": {"50": {"address": "0x1234"}}}`,
			networkID: 50,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse("Artifact.json", []byte(tt.data))
			require.NoError(t, err)

			address, err := doc.NetworkAddress(tt.networkID)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.expected == "" {
				assert.Empty(t, address)
				return
			}
			// Checksummed, so only equal to the lowercase form ignoring case
			assert.Equal(t, common.HexToAddress(tt.expected).Hex(), address)
			assert.True(t, common.IsHexAddress(address))
			assert.NotEqual(t, tt.expected, address)
		})
	}
}
