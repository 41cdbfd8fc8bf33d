package dietplan

import "strings"

const foodPrefix = "- "

// ParseMeals groups the lines of a day's text into meals.
//
// A line starting with "- " is a food item of the current meal, and is dropped
// when no meal header has been seen yet. A line ending in ":" opens a new meal
// labeled with the rest of the line. All other lines are ignored.
func ParseMeals(dayText string) []MealEntry {
	meals := []MealEntry{}
	current := -1

	for _, line := range strings.Split(dayText, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, foodPrefix):
			if current < 0 {
				continue
			}
			meals[current].Food = append(meals[current].Food, strings.TrimPrefix(line, foodPrefix))
		case strings.HasSuffix(line, ":"):
			meals = append(meals, MealEntry{
				Time: strings.TrimSuffix(line, ":"),
				Food: []string{},
			})
			current = len(meals) - 1
		}
	}

	return meals
}
