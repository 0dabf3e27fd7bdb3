package service

import (
	"context"

	"pantry-rest-api/internal/model"
	"pantry-rest-api/internal/repository"
)

// RecipeService reports which recipes are fully coverable by current stock.
// Read-only; it never writes to the batch store or the ledger.
type RecipeService struct {
	repo repository.PantryRepository
}

// NewRecipeService creates a recipe service.
func NewRecipeService(repo repository.PantryRepository) *RecipeService {
	if repo == nil {
		return nil
	}
	return &RecipeService{repo: repo}
}

// AvailableRecipes returns recipes whose every ingredient is covered by the
// user's stock, with matching units.
func (s *RecipeService) AvailableRecipes(ctx context.Context, userID int64) ([]model.Recipe, error) {
	return s.repo.AvailableRecipes(ctx, userID)
}
