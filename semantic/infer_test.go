package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmylua-ls/emmylua-core/config"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

func newTestModel() *Model {
	ti := index.NewTypeIndex()
	mi := index.NewMemberIndex()
	index.WireTypeHooks(ti, mi)
	return NewModel(
		index.NewDeclIndex(), ti, mi, index.NewSignatureIndex(),
		index.NewPropertyIndex(), index.NewOperatorIndex(),
		index.NewReferenceIndex(), index.NewModuleIndex(),
		index.NewFlowIndex(), nil,
	)
}

func TestInferBinaryIntegerDivisionGatedByRuntime(t *testing.T) {
	m := newTestModel()
	b := syntax.NewBuilder(syntax.FileId("fixture.lua"))
	expr := b.Binary(syntax.OpIDiv, b.Int(7), b.Int(2))

	m.Runtime = config.Runtime{Version: config.Lua51}
	_, err := m.InferExpr("fixture.lua", expr)
	assert.Error(t, err, "// is not a built-in operator before Lua 5.3")

	m2 := newTestModel()
	m2.Runtime = config.Runtime{Version: config.Lua54}
	typ, err := m2.InferExpr("fixture.lua", expr)
	require.NoError(t, err)
	assert.Equal(t, types.KInteger, typ.Kind())
}

func TestInferBinaryBitwiseGatedByRuntime(t *testing.T) {
	m := newTestModel()
	b := syntax.NewBuilder(syntax.FileId("fixture.lua"))
	expr := b.Binary(syntax.OpBAnd, b.Int(1), b.Int(2))

	_, err := m.InferExpr("fixture.lua", expr)
	assert.Error(t, err, "zero-value Runtime supports no bitwise operators")

	m.Runtime = config.Runtime{Version: config.LuaJIT}
	typ, err := m.InferExpr("fixture.lua", expr)
	require.NoError(t, err)
	assert.Equal(t, types.KInteger, typ.Kind())
}

func TestInferBinaryConcatAndComparison(t *testing.T) {
	m := newTestModel()
	b := syntax.NewBuilder(syntax.FileId("fixture.lua"))

	concat := b.Binary(syntax.OpConcat, b.String("a"), b.String("b"))
	typ, err := m.InferExpr("fixture.lua", concat)
	require.NoError(t, err)
	assert.Equal(t, types.KString, typ.Kind())

	eq := b.Binary(syntax.OpEq, b.Int(1), b.Int(2))
	typ, err = m.InferExpr("fixture.lua", eq)
	require.NoError(t, err)
	assert.Equal(t, types.KBoolean, typ.Kind())
}
