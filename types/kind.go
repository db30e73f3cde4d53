// Package types implements the LuaType lattice (spec §3) and its
// instantiation, pattern-matching, and alias-call evaluation machinery
// (spec §4.2).
package types

// Kind tags every LuaType variant for fast type-switch-free dispatch where
// needed (most code still type-switches on the concrete Go type; Kind is
// used for fast equality/union bookkeeping and diagnostics).
type Kind uint8

const (
	KUnknown Kind = iota
	KAny
	KNil
	KBoolean
	KNumber
	KInteger
	KFloat
	KString
	KTable
	KThread
	KUserdata
	KFunction
	KGlobal
	KSelfInfer
	KIo

	KBooleanConst
	KIntegerConst
	KFloatConst
	KStringConst
	KDocBooleanConst
	KDocIntegerConst
	KDocFloatConst
	KDocStringConst

	KRef
	KDef

	KArray
	KNullable
	KKeyOf
	KTuple
	KUnion
	KIntersection
	KExtends
	KObject
	KExistField

	KGeneric
	KTableGeneric
	KTplRef
	KStrTplRef
	KFuncTplRef

	KDocFunction
	KSignature

	KVariadic
	KTableConst
	KInstance
	KTypeGuard
	KAliasCall
)

var kindNames = map[Kind]string{
	KUnknown: "unknown", KAny: "any", KNil: "nil", KBoolean: "boolean",
	KNumber: "number", KInteger: "integer", KFloat: "float", KString: "string",
	KTable: "table", KThread: "thread", KUserdata: "userdata", KFunction: "function",
	KGlobal: "global", KSelfInfer: "self", KIo: "io",
	KBooleanConst: "boolean-const", KIntegerConst: "integer-const",
	KFloatConst: "float-const", KStringConst: "string-const",
	KDocBooleanConst: "doc-boolean-const", KDocIntegerConst: "doc-integer-const",
	KDocFloatConst: "doc-float-const", KDocStringConst: "doc-string-const",
	KRef: "ref", KDef: "def",
	KArray: "array", KNullable: "nullable", KKeyOf: "keyof", KTuple: "tuple",
	KUnion: "union", KIntersection: "intersection", KExtends: "extends",
	KObject: "object", KExistField: "exist-field",
	KGeneric: "generic", KTableGeneric: "table-generic", KTplRef: "tpl-ref",
	KStrTplRef: "str-tpl-ref", KFuncTplRef: "func-tpl-ref",
	KDocFunction: "doc-function", KSignature: "signature",
	KVariadic: "variadic", KTableConst: "table-const", KInstance: "instance",
	KTypeGuard: "type-guard", KAliasCall: "alias-call",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}
