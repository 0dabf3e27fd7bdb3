package model

// Recipe is a stored recipe. Only the fields needed by the availability
// report are modeled; ingredient rows stay inside the reporting query.
type Recipe struct {
	ID          int64  `json:"recipe_id"`
	Name        string `json:"recipe_name"`
	Description string `json:"description"`
}
