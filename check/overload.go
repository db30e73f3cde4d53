package check

import "github.com/emmylua-ls/emmylua-core/types"

// Candidate is one overload considered by ResolveSignature.
type Candidate struct {
	Func      types.FunctionType
	DeclOrder int // position among the function's declared overloads, 0-based
}

// ResolveSignature scores every candidate against the call-site argument
// types and picks the best match (spec §4.2 overload scoring table):
//
//	+50000 exact arity match
//	+100   per argument compatible with its parameter's declared type
//	+100   colon-call-ness matches (`:` call vs `.` call)
//	+1     per trailing optional parameter left unsupplied
//
// Ties are broken by earliest declaration order. If no candidate scores
// above zero, the last candidate in the list wins, matching the original's "when in doubt, the final
// `---@overload` is the most specific" convention.
func (c *Checker) ResolveSignature(candidates []Candidate, args []types.Type, isColonCall bool) (Candidate, int) {
	if len(candidates) == 0 {
		return Candidate{}, -1
	}
	bestIdx := len(candidates) - 1
	bestScore := 0
	anyPositive := false
	for i, cand := range candidates {
		score := c.scoreCandidate(cand, args, isColonCall)
		if score <= 0 {
			continue
		}
		if !anyPositive || score > bestScore || (score == bestScore && cand.DeclOrder < candidates[bestIdx].DeclOrder) {
			anyPositive = true
			bestScore = score
			bestIdx = i
		}
	}
	return candidates[bestIdx], bestIdx
}

func (c *Checker) scoreCandidate(cand Candidate, args []types.Type, isColonCall bool) int {
	score := 0
	params := cand.Func.Params
	if len(args) == len(params) {
		score += 50000
	}
	n := len(args)
	if len(params) < n {
		n = len(params)
	}
	for i := 0; i < n; i++ {
		pt := typeOrAny(params[i].Type)
		if c.Compatible(pt, args[i]) {
			score += 100
		}
	}
	if cand.Func.IsColonDef == isColonCall {
		score += 100
	}
	for i := n; i < len(params); i++ {
		if isOptionalParam(params[i]) {
			score++
		}
	}
	return score
}

func isOptionalParam(p types.Param) bool {
	if p.Type == nil {
		return false
	}
	_, ok := p.Type.(types.Nullable)
	return ok
}
