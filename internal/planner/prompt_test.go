package planner

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	budget := 50.0
	zero := 0.0

	tests := []struct {
		name        string
		opts        Options
		contains    []string
		notContains []string
	}{
		{
			name: "Minimal",
			opts: Options{User: "sam", DietaryPreference: "vegan", HealthGoal: "weight loss", NumDays: 3, Allergies: []string{}},
			contains: []string{
				"Create a personalized diet plan for a weight loss individual with vegan preferences for 3 days.",
				`"Day N:"`,
				`"- "`,
			},
			notContains: []string{"Avoid the following allergens", "Budget constraint"},
		},
		{
			name: "AllergiesAndBudget",
			opts: Options{DietaryPreference: "keto", HealthGoal: "muscle gain", NumDays: 2, Allergies: []string{"nuts", "dairy"}, BudgetConstraint: &budget},
			contains: []string{
				"for 2 days.\nAvoid the following allergens: nuts, dairy.",
				"Budget constraint: $50.",
			},
		},
		{
			name:        "ZeroBudgetOmitted",
			opts:        Options{DietaryPreference: "keto", HealthGoal: "health", NumDays: 1, BudgetConstraint: &zero},
			notContains: []string{"Budget constraint"},
		},
		{
			name:     "FractionalBudget",
			opts:     Options{DietaryPreference: "keto", HealthGoal: "health", NumDays: 1, BudgetConstraint: func() *float64 { v := 12.5; return &v }()},
			contains: []string{"Budget constraint: $12.5."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := BuildPrompt(tt.opts)
			if err != nil {
				t.Fatalf("BuildPrompt failed: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(prompt, s) {
					t.Errorf("Expected prompt to contain %q, got:\n%s", s, prompt)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(prompt, s) {
					t.Errorf("Expected prompt not to contain %q, got:\n%s", s, prompt)
				}
			}
		})
	}
}
