package search

import (
	"testing"

	"github.com/recallwatch/recallsearch/internal/models"
)

func TestBuildPlan_Compound(t *testing.T) {
	plan, err := BuildPlan(Tokenize("Acme Corp - Wonder Bottle"))
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Branches) != 2 {
		t.Fatalf("len(Branches) = %d, want 2", len(plan.Branches))
	}

	compound := plan.Branches[0]
	if len(compound.Groups) != 2 {
		t.Fatalf("compound branch has %d groups, want 2", len(compound.Groups))
	}
	for _, p := range compound.Groups[0].Predicates {
		if p.Token != "Acme Corp" || p.Role != models.RoleBrand {
			t.Errorf("brand predicate = %+v", p)
		}
		if p.Field != models.FieldBrand && p.Field != models.FieldManufacturer {
			t.Errorf("brand predicate targets %s", p.Field)
		}
	}
	for _, p := range compound.Groups[1].Predicates {
		if p.Token != "Wonder Bottle" || p.Role != models.RoleProduct {
			t.Errorf("product predicate = %+v", p)
		}
		if p.Field != models.FieldProductName && p.Field != models.FieldDescription {
			t.Errorf("product predicate targets %s", p.Field)
		}
	}

	assertFullStringBranch(t, plan.Branches[1], "Acme Corp - Wonder Bottle")
}

func TestBuildPlan_Keywords(t *testing.T) {
	ts := Tokenize("Fisher Price infant swing with recall notice")
	plan, err := BuildPlan(ts)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Branches) != 2 {
		t.Fatalf("len(Branches) = %d, want 2", len(plan.Branches))
	}

	keywordBranch := plan.Branches[0]
	keywords := ts.KeywordTexts()
	if len(keywordBranch.Groups) != len(keywords) {
		t.Fatalf("keyword branch has %d groups, want %d", len(keywordBranch.Groups), len(keywords))
	}
	for i, group := range keywordBranch.Groups {
		if len(group.Predicates) != len(models.SearchedFields) {
			t.Errorf("group %d spans %d fields, want %d", i, len(group.Predicates), len(models.SearchedFields))
		}
		for _, p := range group.Predicates {
			if p.Token != keywords[i] || p.Role != models.RoleKeyword {
				t.Errorf("group %d predicate = %+v", i, p)
			}
		}
	}

	assertFullStringBranch(t, plan.Branches[1], ts.Full())
}

func TestBuildPlan_Simple(t *testing.T) {
	plan, err := BuildPlan(Tokenize("infant swing"))
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Branches) != 1 {
		t.Fatalf("len(Branches) = %d, want 1", len(plan.Branches))
	}
	assertFullStringBranch(t, plan.Branches[0], "infant swing")
}

func TestBuildPlan_EmptySet(t *testing.T) {
	if _, err := BuildPlan(models.TokenSet{Kind: models.KindNone}); err == nil {
		t.Error("BuildPlan(empty) should error")
	}
}

// assertFullStringBranch checks the fallback branch: one OR group matching the
// full query string against every searched field.
func assertFullStringBranch(t *testing.T, branch models.PlanBranch, full string) {
	t.Helper()
	if len(branch.Groups) != 1 {
		t.Fatalf("full-string branch has %d groups, want 1", len(branch.Groups))
	}
	preds := branch.Groups[0].Predicates
	if len(preds) != len(models.SearchedFields) {
		t.Fatalf("full-string group spans %d fields, want %d", len(preds), len(models.SearchedFields))
	}
	for _, p := range preds {
		if p.Token != full || p.Role != models.RoleFull {
			t.Errorf("full-string predicate = %+v", p)
		}
	}
}
