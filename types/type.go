package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// Type is implemented by every LuaType variant. It is intentionally a thin
// interface (one method) so every variant is a small, directly comparable
// or structurally-walkable struct; Equal and visitors do the heavy lifting
// rather than the interface itself, mirroring go/types.Type in spirit.
type Type interface {
	Kind() Kind
	String() string
}

// --- Primitives (singletons; safe to share since they carry no payload) ---

type primitive struct{ kind Kind }

func (p primitive) Kind() Kind     { return p.kind }
func (p primitive) String() string { return p.kind.String() }

var (
	Unknown   Type = primitive{KUnknown}
	Any       Type = primitive{KAny}
	Nil       Type = primitive{KNil}
	Boolean   Type = primitive{KBoolean}
	Number    Type = primitive{KNumber}
	Integer   Type = primitive{KInteger}
	Float     Type = primitive{KFloat}
	String    Type = primitive{KString}
	Table     Type = primitive{KTable}
	Thread    Type = primitive{KThread}
	Userdata  Type = primitive{KUserdata}
	Function  Type = primitive{KFunction}
	Global    Type = primitive{KGlobal}
	SelfInfer Type = primitive{KSelfInfer}
	Io        Type = primitive{KIo}
)

// --- Literal constants ---

type BooleanConst struct{ Value bool }

func (BooleanConst) Kind() Kind          { return KBooleanConst }
func (b BooleanConst) String() string    { return fmt.Sprintf("%t", b.Value) }

type IntegerConst struct{ Value int64 }

func (IntegerConst) Kind() Kind       { return KIntegerConst }
func (i IntegerConst) String() string { return fmt.Sprintf("%d", i.Value) }

type FloatConst struct{ Value float64 }

func (FloatConst) Kind() Kind       { return KFloatConst }
func (f FloatConst) String() string { return fmt.Sprintf("%g", f.Value) }

type StringConst struct{ Value string }

func (StringConst) Kind() Kind       { return KStringConst }
func (s StringConst) String() string { return fmt.Sprintf("%q", s.Value) }

// Doc*Const variants are literal types declared in a doc-comment (e.g.
// `---@type "GET"`) rather than inferred from an actual code literal. They
// carry the same payload but are kept as distinct variants because the
// analyzer must not treat a doc-declared literal as a candidate for
// "narrow to this exact code occurrence" bookkeeping the way a real
// literal expression is (spec §3: "plus Doc*Const variants").
type DocBooleanConst struct{ Value bool }

func (DocBooleanConst) Kind() Kind       { return KDocBooleanConst }
func (d DocBooleanConst) String() string { return fmt.Sprintf("%t", d.Value) }

type DocIntegerConst struct{ Value int64 }

func (DocIntegerConst) Kind() Kind       { return KDocIntegerConst }
func (d DocIntegerConst) String() string { return fmt.Sprintf("%d", d.Value) }

type DocFloatConst struct{ Value float64 }

func (DocFloatConst) Kind() Kind       { return KDocFloatConst }
func (d DocFloatConst) String() string { return fmt.Sprintf("%g", d.Value) }

type DocStringConst struct{ Value string }

func (DocStringConst) Kind() Kind       { return KDocStringConst }
func (d DocStringConst) String() string { return fmt.Sprintf("%q", d.Value) }

// --- Named ---

// Ref is a nominal reference to a user-defined type (class/enum/alias).
type Ref struct{ Decl ids.TypeDeclId }

func (Ref) Kind() Kind       { return KRef }
func (r Ref) String() string { return fmt.Sprintf("ref(%d)", r.Decl) }

// Def is the type itself used as a value (e.g. the class object passed
// around, as opposed to an instance of it).
type Def struct{ Decl ids.TypeDeclId }

func (Def) Kind() Kind       { return KDef }
func (d Def) String() string { return fmt.Sprintf("def(%d)", d.Decl) }

// --- Compound ---

type Array struct{ Elem Type }

func (Array) Kind() Kind       { return KArray }
func (a Array) String() string { return a.Elem.String() + "[]" }

type Nullable struct{ Elem Type }

func (Nullable) Kind() Kind       { return KNullable }
func (n Nullable) String() string { return n.Elem.String() + "?" }

type KeyOf struct{ Of Type }

func (KeyOf) Kind() Kind       { return KKeyOf }
func (k KeyOf) String() string { return "keyof(" + k.Of.String() + ")" }

type Tuple struct{ Elems []Type }

func (Tuple) Kind() Kind { return KTuple }
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type Union struct{ Elems []Type }

func (Union) Kind() Kind { return KUnion }
func (u Union) String() string {
	parts := make([]string, len(u.Elems))
	for i, e := range u.Elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, "|")
}

type Intersection struct{ Elems []Type }

func (Intersection) Kind() Kind { return KIntersection }
func (i Intersection) String() string {
	parts := make([]string, len(i.Elems))
	for j, e := range i.Elems {
		parts[j] = e.String()
	}
	return strings.Join(parts, "&")
}

type Extends struct {
	Base Type
	Ext  Type
}

func (Extends) Kind() Kind { return KExtends }
func (e Extends) String() string {
	return e.Base.String() + " extends " + e.Ext.String()
}

// ObjectKeyKind distinguishes the two concrete object-member key shapes.
type ObjectKeyKind uint8

const (
	ObjectKeyName ObjectKeyKind = iota
	ObjectKeyInt
)

type ObjectKey struct {
	Kind ObjectKeyKind
	Name string
	Int  int64
}

func (k ObjectKey) String() string {
	if k.Kind == ObjectKeyInt {
		return fmt.Sprintf("[%d]", k.Int)
	}
	return k.Name
}

// IndexSig is an index signature pair ([K]: V) attached to an Object type,
// covering keys not named explicitly in Fields.
type IndexSig struct {
	Key   Type
	Value Type
}

// Object is a structural record type: a literal {key -> T} map plus
// optional index signatures (spec §3: `Object({key → T}, [(K,V)])`).
type Object struct {
	Fields   map[ObjectKey]Type
	Indexes  []IndexSig
	Nullable map[ObjectKey]bool // tracks `@field key? T` optionality
}

func (Object) Kind() Kind { return KObject }
func (o Object) String() string {
	keys := make([]ObjectKey, 0, len(o.Fields))
	for k := range o.Fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.String()+": "+o.Fields[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// IsOptional reports whether field key is declared nullable on o.
func (o Object) IsOptional(key ObjectKey) bool {
	return o.Nullable != nil && o.Nullable[key]
}

// ExistField represents "a type known only to have a given field", used
// when the inferencer observes an access `x.field` before x's full shape
// is known (deferred structural inference).
type ExistField struct {
	Field  string
	Origin Type // the type being refined, Unknown if none yet
}

func (ExistField) Kind() Kind { return KExistField }
func (e ExistField) String() string {
	return fmt.Sprintf("existfield(%s, %s)", e.Field, e.Origin)
}

// --- Generic ---

type Generic struct {
	Base   ids.TypeDeclId
	Params []Type
}

func (Generic) Kind() Kind { return KGeneric }
func (g Generic) String() string {
	parts := make([]string, len(g.Params))
	for i, p := range g.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("generic(%d)<%s>", g.Base, strings.Join(parts, ", "))
}

// TableGeneric is a generic table shape, e.g. `table<K,V>`; Params holds
// [K,V] (or just [V] for a pure array-of-V table).
type TableGeneric struct{ Params []Type }

func (TableGeneric) Kind() Kind { return KTableGeneric }
func (t TableGeneric) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "table<" + strings.Join(parts, ", ") + ">"
}

// GenericTplId identifies a single generic template parameter declared via
// `---@generic T`.
type GenericTplId string

type TplRef struct{ Id GenericTplId }

func (TplRef) Kind() Kind       { return KTplRef }
func (t TplRef) String() string { return "tpl(" + string(t.Id) + ")" }

// StrTplRef is a "string template" reference used by `classDefaultCall`-style
// generic patterns where a string literal argument selects a class by
// concatenating a fixed prefix, e.g. `T.prefix..arg`.
type StrTplRef struct {
	Prefix string
	Id     GenericTplId
}

func (StrTplRef) Kind() Kind { return KStrTplRef }
func (s StrTplRef) String() string {
	return "strtpl(" + s.Prefix + ", " + string(s.Id) + ")"
}

// FuncTplId identifies a generic parameter declared on a specific
// signature (as opposed to a class-level template parameter).
type FuncTplId string

type FuncTplRef struct{ Id FuncTplId }

func (FuncTplRef) Kind() Kind       { return KFuncTplRef }
func (f FuncTplRef) String() string { return "functpl(" + string(f.Id) + ")" }

// --- Functions ---

// Param is one declared parameter of a function type.
type Param struct {
	Name string
	Type Type // nil means "untyped", equivalent to Any at call sites
}

// FunctionType is the shape of a callable, whether declared purely via
// doc-comments (DocFunction) or derived from a closure's signature.
type FunctionType struct {
	IsAsync      bool
	IsColonDef   bool
	IsVariadic   bool // trailing `...` parameter (syntax.ClosureExpr.HasVararg)
	Params       []Param
	Return       Type // may itself be Variadic
}

func (f FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		t := Unknown
		if p.Type != nil {
			t = p.Type
		}
		parts[i] = p.Name + ": " + t.String()
	}
	ret := "nil"
	if f.Return != nil {
		ret = f.Return.String()
	}
	prefix := ""
	if f.IsAsync {
		prefix = "async "
	}
	return fmt.Sprintf("%sfun(%s): %s", prefix, strings.Join(parts, ", "), ret)
}

type DocFunction struct{ Func FunctionType }

func (DocFunction) Kind() Kind       { return KDocFunction }
func (d DocFunction) String() string { return d.Func.String() }

type Signature struct{ Id ids.SignatureId }

func (Signature) Kind() Kind       { return KSignature }
func (s Signature) String() string { return "signature(" + s.Id.String() + ")" }

// --- Variadic ---

// VariadicShape distinguishes a homogeneous trailing-value type from a
// fixed tuple of trailing types.
type VariadicShape uint8

const (
	VariadicBase VariadicShape = iota
	VariadicMulti
)

type VariadicType struct {
	Shape VariadicShape
	Base  Type   // used when Shape == VariadicBase
	Multi []Type // used when Shape == VariadicMulti
}

// Get returns the type at position idx (0-based) of the variadic,
// repeating Base forever for VariadicBase, or Nil past the end of Multi.
func (v VariadicType) Get(idx int) Type {
	switch v.Shape {
	case VariadicBase:
		return v.Base
	case VariadicMulti:
		if idx >= 0 && idx < len(v.Multi) {
			return v.Multi[idx]
		}
		return Nil
	default:
		return Unknown
	}
}

func (v VariadicType) String() string {
	if v.Shape == VariadicBase {
		return v.Base.String() + "..."
	}
	parts := make([]string, len(v.Multi))
	for i, t := range v.Multi {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")..."
}

type Variadic struct{ Variadic VariadicType }

func (Variadic) Kind() Kind       { return KVariadic }
func (v Variadic) String() string { return v.Variadic.String() }

// --- Misc ---

// TableConst identifies an anonymous table literal by its source range,
// before/instead of it being ascribed a nominal Ref/Object type.
type TableConst struct {
	File  syntax.FileId
	Range syntax.Range
}

func (TableConst) Kind() Kind       { return KTableConst }
func (t TableConst) String() string { return fmt.Sprintf("tableconst(%s:%s)", t.File, t.Range) }

// Instance is a value known to be an instance of Base, constructed at a
// particular source site (e.g. `Base.new()` or `setmetatable({}, Base)`).
// Distinct from TableConst: Instance always carries a known nominal base.
type Instance struct {
	Base  Type
	File  syntax.FileId
	Range syntax.Range
}

func (Instance) Kind() Kind { return KInstance }
func (i Instance) String() string {
	return fmt.Sprintf("instance(%s @ %s:%s)", i.Base, i.File, i.Range)
}

// TypeGuard marks a function's return type as a user-defined type guard:
// calling it and checking truthiness narrows its first argument to T (or
// removes T on a false/negated result). See spec §4.4.
type TypeGuard struct{ Narrowed Type }

func (TypeGuard) Kind() Kind       { return KTypeGuard }
func (t TypeGuard) String() string { return "typeguard(" + t.Narrowed.String() + ")" }

// AliasCallKind enumerates the type-level operators invoked through
// `---@alias` syntax (spec §4.2 table).
type AliasCallKind uint8

const (
	AliasSub AliasCallKind = iota
	AliasAdd
	AliasKeyOf
	AliasExtends
	AliasSelect
	AliasUnpack
	AliasRawGet
	AliasIndex
)

func (k AliasCallKind) String() string {
	switch k {
	case AliasSub:
		return "Sub"
	case AliasAdd:
		return "Add"
	case AliasKeyOf:
		return "KeyOf"
	case AliasExtends:
		return "Extends"
	case AliasSelect:
		return "Select"
	case AliasUnpack:
		return "Unpack"
	case AliasRawGet:
		return "RawGet"
	case AliasIndex:
		return "Index"
	default:
		return "?"
	}
}

type AliasCall struct {
	AliasKind AliasCallKind
	Args      []Type
}

func (AliasCall) Kind() Kind { return KAliasCall }
func (a AliasCall) String() string {
	parts := make([]string, len(a.Args))
	for i, t := range a.Args {
		parts[i] = t.String()
	}
	return a.AliasKind.String() + "(" + strings.Join(parts, ", ") + ")"
}
