package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jshufro/abi-gen/internal/descriptor"
	"github.com/jshufro/abi-gen/internal/typemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContext(t *testing.T, abiJSON string) *descriptor.Context {
	t.Helper()
	doc, err := descriptor.Parse("Token.json", []byte(abiJSON))
	require.NoError(t, err)
	ctx, err := descriptor.Normalize("Token", doc.Entries)
	require.NoError(t, err)
	return ctx
}

const tokenABI = `[
	{"type": "function", "name": "transfer", "inputs": [{"name": "", "type": "address"}, {"name": "amount", "type": "uint8"}], "outputs": [{"type": "uint8"}], "stateMutability": "nonpayable"},
	{"type": "function", "name": "version", "inputs": [], "outputs": [{"type": "string"}], "stateMutability": "pure"}
]`

func TestRenderWithHelpers(t *testing.T) {
	tests := []struct {
		backend  typemap.Backend
		expected string
	}{
		{
			backend:  typemap.Web3,
			expected: "Token transfer(index_0: string, amount: number|BigNumber): BigNumber\nToken version(): string pure\n",
		},
		{
			backend:  typemap.Ethers,
			expected: "Token transfer(index_0: string, amount: number|BigNumber): number\nToken version(): string pure\n",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			r := NewRegistry(zap.NewNop().Sugar())
			r.RegisterFragment("params", `{{range $i, $p := .}}{{if $i}}, {{end}}{{$p.Name}}: {{parameterType $p.Type $p.Components}}{{end}}`)

			tpl, err := r.Compile("contract",
				`{{range .Methods}}{{$.ContractName}} {{.UniqueName}}({{template "params" .Inputs}}): {{returnType (index .Outputs 0).Type}}{{if isPure .StateMutability}} pure{{end}}`+"\n"+`{{end}}`,
				Helpers(typemap.New(tt.backend)))
			require.NoError(t, err)

			out, err := tpl.Render(newContext(t, tokenABI))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestRegisterFragmentLastWriteWins(t *testing.T) {
	r := NewRegistry(zap.NewNop().Sugar())
	r.RegisterFragment("header", "first")
	r.RegisterFragment("header", "second")
	assert.Equal(t, []string{"header"}, r.Names())

	tpl, err := r.Compile("main", `{{template "header" .}}`, Helpers(typemap.New(typemap.Web3)))
	require.NoError(t, err)

	out, err := tpl.Render(&descriptor.Context{ContractName: "Token"})
	require.NoError(t, err)
	assert.Equal(t, "second", string(out))
}

func TestLoadFragments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "name.tmpl"), []byte("{{.ContractName}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banner.partial.tmpl"), []byte("// {{template \"name\" .}}"), 0o644))

	r := NewRegistry(zap.NewNop().Sugar())
	require.NoError(t, r.LoadFragments([]string{
		filepath.Join(dir, "name.tmpl"),
		filepath.Join(dir, "banner.partial.tmpl"),
	}))
	assert.Equal(t, []string{"banner.partial", "name"}, r.Names())

	tpl, err := r.Compile("main", `{{template "banner.partial" .}}`, Helpers(typemap.New(typemap.Web3)))
	require.NoError(t, err)
	out, err := tpl.Render(&descriptor.Context{ContractName: "Exchange"})
	require.NoError(t, err)
	assert.Equal(t, "// Exchange", string(out))

	require.Error(t, r.LoadFragments([]string{filepath.Join(dir, "missing.tmpl")}))
}

func TestCompileErrors(t *testing.T) {
	helpers := Helpers(typemap.New(typemap.Web3))

	t.Run("main template syntax", func(t *testing.T) {
		_, err := NewRegistry(zap.NewNop().Sugar()).Compile("main", `{{range .Methods}}`, helpers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRender))
	})

	t.Run("unknown helper", func(t *testing.T) {
		_, err := NewRegistry(zap.NewNop().Sugar()).Compile("main", `{{solidityType "uint8"}}`, helpers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRender))
	})

	t.Run("partial syntax", func(t *testing.T) {
		r := NewRegistry(zap.NewNop().Sugar())
		r.RegisterFragment("broken", `{{if}}`)
		_, err := r.Compile("main", `ok`, helpers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRender))
		assert.Contains(t, err.Error(), "broken")
	})
}

func TestRenderErrors(t *testing.T) {
	helpers := Helpers(typemap.New(typemap.Web3))

	t.Run("unsupported type", func(t *testing.T) {
		tpl, err := NewRegistry(zap.NewNop().Sugar()).Compile("main", `{{parameterType "ufixed128x18"}}`, helpers)
		require.NoError(t, err)

		_, err = tpl.Render(&descriptor.Context{ContractName: "Token"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRender))
		assert.Contains(t, err.Error(), "ufixed128x18")
	})

	t.Run("missing partial", func(t *testing.T) {
		tpl, err := NewRegistry(zap.NewNop().Sugar()).Compile("main", `{{template "method" .}}`, helpers)
		require.NoError(t, err)

		_, err = tpl.Render(&descriptor.Context{ContractName: "Token"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRender))
	})

	t.Run("missing field", func(t *testing.T) {
		tpl, err := NewRegistry(zap.NewNop().Sugar()).Compile("main", `{{.Address}}`, helpers)
		require.NoError(t, err)

		_, err = tpl.Render(&descriptor.Context{ContractName: "Token"})
		require.Error(t, err)
	})
}
