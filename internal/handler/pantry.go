package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"pantry-rest-api/internal/middleware"
	"pantry-rest-api/internal/service"
	"pantry-rest-api/pkg/apierror"
	"pantry-rest-api/pkg/response"
)

// PantryHandler handles inventory-related HTTP requests.
type PantryHandler struct {
	stockService *service.StockService
}

// NewPantryHandler creates a new pantry handler.
func NewPantryHandler(stockService *service.StockService) *PantryHandler {
	return &PantryHandler{
		stockService: stockService,
	}
}

// parseDate parses an optional "YYYY-MM-DD" field.
func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apierror.Validation("invalid date",
			apierror.FieldError{Field: field, Message: "expected YYYY-MM-DD"})
	}
	return &t, nil
}

// AddStockRequest represents the request body for adding stock.
type AddStockRequest struct {
	ItemName     string  `json:"item_name"`
	CategoryID   int64   `json:"category_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PurchaseDate string  `json:"purchase_date,omitempty"`
	ExpiryDate   string  `json:"expiry_date,omitempty"`
	Location     *string `json:"location,omitempty"`
}

// AddStock handles POST /api/v1/pantry
func (h *PantryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	purchase, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		response.Error(w, err)
		return
	}
	expiry, err := parseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	batchID, err := h.stockService.AddStock(r.Context(), userID, service.AddStockInput{
		ItemName:     req.ItemName,
		CategoryID:   req.CategoryID,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		PurchaseDate: purchase,
		ExpiryDate:   expiry,
		Location:     req.Location,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"batch_id": batchID,
	})
}

// ConsumeRequest represents the request body for consuming stock. A missing
// quantity removes every batch of the item.
type ConsumeRequest struct {
	ItemName string   `json:"item_name"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// Consume handles POST /api/v1/pantry/consume
func (h *PantryHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req ConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	userID := middleware.GetUserID(r.Context())
	if err := h.stockService.Consume(r.Context(), userID, req.ItemName, req.Quantity); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"status":    "removed",
		"item_name": req.ItemName,
	})
}

// ListInventory handles GET /api/v1/pantry
func (h *PantryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rows, err := h.stockService.ListInventory(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, rows)
}

// ListItems handles GET /api/v1/items
func (h *PantryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	items, err := h.stockService.ListItems(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, items)
}

// ListCategories handles GET /api/v1/categories
func (h *PantryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.stockService.ListCategories(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, cats)
}
