package handler

import (
	"net/http"

	"pantry-rest-api/internal/middleware"
	"pantry-rest-api/internal/service"
	"pantry-rest-api/pkg/response"
)

// RecipeHandler handles the recipe availability report.
type RecipeHandler struct {
	recipeService *service.RecipeService
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
	}
}

// AvailableRecipes handles GET /api/v1/recipes/available
func (h *RecipeHandler) AvailableRecipes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	recipes, err := h.recipeService.AvailableRecipes(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, recipes)
}
