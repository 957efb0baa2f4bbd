package models

// Predicate is a single (field, token) match test.
type Predicate struct {
	Field Field
	Token string
	Role  TokenRole
}

// PredicateGroup matches when ANY of its predicates matches.
type PredicateGroup struct {
	Predicates []Predicate
}

// PlanBranch matches when ALL of its groups match.
type PlanBranch struct {
	Groups []PredicateGroup
}

// QueryPlan is the declarative match plan produced by the condition builder:
// a disjunction of branches, each branch a conjunction of OR-groups. The
// store translates it to its native query facility; the plan itself is
// backend-agnostic.
type QueryPlan struct {
	Branches []PlanBranch
}

// Empty reports whether the plan contains no predicates at all.
func (p *QueryPlan) Empty() bool {
	if p == nil {
		return true
	}
	for _, b := range p.Branches {
		for _, g := range b.Groups {
			if len(g.Predicates) > 0 {
				return false
			}
		}
	}
	return true
}
