package types

import "github.com/emmylua-ls/emmylua-core/ids"

// The type lattice is the lowest layer of the engine and must not import
// the index or check packages (both depend on types) to avoid an import
// cycle. A handful of operations are nonetheless defined in terms of
// higher-layer concepts — interning a type name, checking compatibility,
// or looking up an owner's members — so those operations are expressed as
// package-level hooks that the higher layer wires up once at engine
// start-up (mirrors the teacher's dependency-injected `fieldCache`/
// `structIndex` passed down into leaf functions, just inverted: here the
// leaf registers the callback instead of receiving it as a parameter,
// since Instantiate/EvalAliasCall are called from many unrelated sites).

// InternHook interns a dotted type name into a TypeDeclId. Wired by the
// ids/index layer. If unset, StrTplRef matches bind a StringConst instead
// of a Ref, which is enough for callers that only care about the literal
// value (e.g. unit tests of pattern matching in isolation).
var InternHook func(name string) ids.TypeDeclId

// CheckCompatibleHook reports whether value is assignable to source,
// wired by the check package. Used by EvalAliasCall's Extends operator.
var CheckCompatibleHook func(source, value Type) bool

// MemberKeysHook returns the member keys (as string/integer literal
// types) of owner, wired by the index package. Used by EvalAliasCall's
// KeyOf operator.
var MemberKeysHook func(owner Type) []Type

// RawGetHook performs a raw member lookup on owner for key with no
// inheritance and no __index fallback, wired by the index package. Used
// by EvalAliasCall's RawGet operator.
var RawGetHook func(owner, key Type) Type
