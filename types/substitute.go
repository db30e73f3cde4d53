package types

// SubstKind tags which alternative of SubstValue is populated.
type SubstKind uint8

const (
	SubstNone SubstKind = iota // "needs inference from call site"
	SubstOne
	SubstParams
	SubstMultiTypes
	SubstMultiBase
)

// SubstValue is one binding in a Substitutor (spec §4.2).
type SubstValue struct {
	Kind       SubstKind
	One        Type
	Params     []Param
	MultiTypes []Type
	MultiBase  Type
}

// Substitutor carries the template-parameter -> value bindings used by
// Instantiate. Keys are GenericTplId, FuncTplId, or StrTplRef values (the
// same identity Visit/CollectTemplateIds extracts).
type Substitutor struct {
	values map[any]SubstValue
	self   Type // set by SetSelf; Instantiate does not read it
}

// NewSubstitutor creates an empty substitutor.
func NewSubstitutor() *Substitutor {
	return &Substitutor{values: make(map[any]SubstValue)}
}

// Bind assigns the given value for key, overwriting any prior binding
// (used both to seed "needs inference" placeholders and to fill them in
// once tpl_pattern_match determines the actual type).
func (s *Substitutor) Bind(key any, v SubstValue) {
	s.values[key] = v
}

// BindType is a convenience for the common SubstOne case.
func (s *Substitutor) BindType(key any, t Type) {
	s.Bind(key, SubstValue{Kind: SubstOne, One: t})
}

// Lookup returns the binding for key, or (zero value, false) if unbound.
func (s *Substitutor) Lookup(key any) (SubstValue, bool) {
	v, ok := s.values[key]
	return v, ok
}

// SetSelf records a self type on the substitutor. Nothing in this module
// calls it, and Instantiate returns SelfInfer unchanged rather than
// replacing it with this type.
func (s *Substitutor) SetSelf(t Type) { s.self = t }

// Self returns the bound self type, or nil if none was set.
func (s *Substitutor) Self() Type { return s.self }

// keyOf returns the substitutor key for a template-reference type, or nil
// if t is not one.
func keyOf(t Type) any {
	switch tv := t.(type) {
	case TplRef:
		return tv.Id
	case StrTplRef:
		return tv
	case FuncTplRef:
		return tv.Id
	default:
		return nil
	}
}
