package search

import (
	"fmt"

	"github.com/recallwatch/recallsearch/internal/models"
)

// brandFields are the fields a brand-part token is tested against.
var brandFields = []models.Field{models.FieldBrand, models.FieldManufacturer}

// productFields are the fields a product-part token is tested against.
var productFields = []models.Field{models.FieldProductName, models.FieldDescription}

// BuildPlan converts a TokenSet into a declarative QueryPlan.
//
// A compound token set produces two alternatives: the decomposed
// interpretation (brand part against brand/manufacturer AND product part
// against product name/description) and the full string against any field.
// The decomposition covers "Brand - Product" queries where no single field
// contains the literal concatenation but each part exists in a different
// field; the full-string branch covers fields that do contain it.
//
// A keyword token set requires every keyword to match at least one field,
// again with the full string as a separate OR branch. A simple token set is
// just the full string against every field.
func BuildPlan(ts models.TokenSet) (*models.QueryPlan, error) {
	if ts.Empty() {
		return nil, fmt.Errorf("cannot build plan from empty token set")
	}

	plan := &models.QueryPlan{}

	switch ts.Kind {
	case models.KindCompound:
		compound := models.PlanBranch{Groups: []models.PredicateGroup{
			fieldGroup(ts.BrandPart(), models.RoleBrand, brandFields),
			fieldGroup(ts.ProductPart(), models.RoleProduct, productFields),
		}}
		plan.Branches = append(plan.Branches, compound, fullStringBranch(ts.Full()))

	case models.KindKeywords:
		var groups []models.PredicateGroup
		for _, kw := range ts.KeywordTexts() {
			groups = append(groups, fieldGroup(kw, models.RoleKeyword, models.SearchedFields))
		}
		if len(groups) > 0 {
			plan.Branches = append(plan.Branches, models.PlanBranch{Groups: groups})
		}
		plan.Branches = append(plan.Branches, fullStringBranch(ts.Full()))

	case models.KindSimple:
		plan.Branches = append(plan.Branches, fullStringBranch(ts.Full()))

	default:
		return nil, fmt.Errorf("cannot build plan for token kind %s", ts.Kind)
	}

	if plan.Empty() {
		return nil, fmt.Errorf("token set produced an empty plan")
	}
	return plan, nil
}

// fullStringBranch matches the token against any searched field.
func fullStringBranch(full string) models.PlanBranch {
	return models.PlanBranch{Groups: []models.PredicateGroup{
		fieldGroup(full, models.RoleFull, models.SearchedFields),
	}}
}

func fieldGroup(token string, role models.TokenRole, fields []models.Field) models.PredicateGroup {
	group := models.PredicateGroup{Predicates: make([]models.Predicate, 0, len(fields))}
	for _, f := range fields {
		group.Predicates = append(group.Predicates, models.Predicate{
			Field: f,
			Token: token,
			Role:  role,
		})
	}
	return group
}
