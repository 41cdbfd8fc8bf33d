package planner

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"text/template"
)

//go:embed diet_prompt.md
var dietPrompt string

var promptTemplate = template.Must(template.New("Diet").Funcs(template.FuncMap{
	"join":      strings.Join,
	"hasBudget": hasBudget,
	"money":     formatMoney,
}).Parse(dietPrompt))

// Options are the user's dietary preferences for one plan.
type Options struct {
	User              string   `json:"user"`
	DietaryPreference string   `json:"dietaryPreference"`
	HealthGoal        string   `json:"healthGoal"`
	NumDays           int      `json:"numDays"`
	Allergies         []string `json:"allergies"`
	BudgetConstraint  *float64 `json:"budgetConstraint,omitempty"`
}

// BuildPrompt renders the completion prompt for opts.
func BuildPrompt(opts Options) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, opts); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func hasBudget(budget *float64) bool {
	return budget != nil && *budget != 0
}

func formatMoney(budget *float64) string {
	if budget == nil {
		return ""
	}
	return strconv.FormatFloat(*budget, 'f', -1, 64)
}
