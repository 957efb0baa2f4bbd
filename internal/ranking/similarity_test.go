package ranking

import "testing"

func TestEvaluator_Score(t *testing.T) {
	eval := NewEvaluator(DefaultConfig(), true)

	tests := []struct {
		name  string
		token string
		field string
		want  float64
	}{
		{"empty field", "bottle", "", 0},
		{"empty token", "", "Wonder Bottle", 0},
		{"both empty", "", "", 0},
		{"exact", "Wonder Bottle", "Wonder Bottle", 1.0},
		{"containment", "bottle", "Wonder Bottle 500ml", 1.0},
		{"reverse containment", "Wonder Bottle 500ml", "Bottle", 1.0},
		{"case insensitive", "WONDER BOTTLE", "wonder bottle", 1.0},
		{"unrelated", "bottle", "xyzq", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval.Score(tt.token, tt.field); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.token, tt.field, got, tt.want)
			}
		})
	}
}

func TestEvaluator_ReverseContainmentGated(t *testing.T) {
	eval := NewEvaluator(DefaultConfig(), true)

	// A substantial field embedded in a compound token still scores full.
	if got := eval.Score("Acme Corp - Wonder Bottle", "Wonder Bottle"); got != 1.0 {
		t.Errorf("substantial reverse containment = %v, want 1.0", got)
	}

	// A two-letter field inside a long token is not a field match.
	if got := eval.Score("Children's Triacting Night Time Cold & Cough with PE", "PE"); got != 0 {
		t.Errorf("tiny field in long token = %v, want 0", got)
	}

	// A short field dwarfed by the token must not take the full score.
	if got := eval.Score("Acme Super Deluxe Camping Lantern Kit 2000", "Acme"); got >= 1.0 {
		t.Errorf("dwarfed field = %v, want below 1.0", got)
	}
}

func TestEvaluator_FuzzyAboveThreshold(t *testing.T) {
	eval := NewEvaluator(DefaultConfig(), true)

	// One character off: not a substring, but most trigrams shared.
	got := eval.Score("wondr bottle", "wonder bottle")
	if got <= 0 || got >= 1 {
		t.Errorf("Score(near miss) = %v, want value in (0,1)", got)
	}
}

func TestEvaluator_WithoutFuzzyOnlyContainment(t *testing.T) {
	eval := NewEvaluator(DefaultConfig(), false)

	if got := eval.Score("bottle", "Wonder Bottle"); got != 1.0 {
		t.Errorf("containment without fuzzy = %v, want 1.0", got)
	}
	if got := eval.Score("wondr bottle", "wonder bottle"); got != 0 {
		t.Errorf("near miss without fuzzy = %v, want 0", got)
	}
}

func TestEvaluator_ThresholdFloorsNoise(t *testing.T) {
	eval := NewEvaluator(&Config{SimilarityThreshold: 0.9}, true)

	// Shares a few trigrams but well below a 0.9 threshold.
	if got := eval.Score("wonder", "wander kettle"); got != 0 {
		t.Errorf("below-threshold score = %v, want 0", got)
	}
}

func TestTrigramSimilarity(t *testing.T) {
	if got := TrigramSimilarity("bottle", "bottle"); got != 1.0 {
		t.Errorf("identical strings = %v, want 1.0", got)
	}
	if got := TrigramSimilarity("bottle", ""); got != 0 {
		t.Errorf("empty operand = %v, want 0", got)
	}
	if got := TrigramSimilarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings = %v, want 0", got)
	}
	if got := TrigramSimilarity("Bottle", "BOTTLE"); got != 1.0 {
		t.Errorf("case difference = %v, want 1.0", got)
	}
}

func TestTrigramSimilarity_Monotonic(t *testing.T) {
	// Closer strings must not score lower than more distant ones.
	closer := TrigramSimilarity("wonder bottle", "wonder bottl")
	farther := TrigramSimilarity("wonder bottle", "wonder kettle")
	if closer <= farther {
		t.Errorf("closer %v <= farther %v", closer, farther)
	}
}
