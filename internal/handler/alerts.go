package handler

import (
	"encoding/json"
	"net/http"

	"pantry-rest-api/internal/middleware"
	"pantry-rest-api/internal/service"
	"pantry-rest-api/pkg/apierror"
	"pantry-rest-api/pkg/response"
)

// AlertHandler handles restock and expiry alert HTTP requests.
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

// GetRestockAlerts handles GET /api/v1/alerts/restock
func (h *AlertHandler) GetRestockAlerts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	alerts, err := h.alertService.RestockAlerts(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, alerts)
}

// SetRestockAlertRequest represents the request body for setting an alert.
type SetRestockAlertRequest struct {
	ItemID      int64    `json:"item_id"`
	MinQuantity *float64 `json:"min_quantity"`
}

// SetRestockAlert handles POST /api/v1/alerts/restock
func (h *AlertHandler) SetRestockAlert(w http.ResponseWriter, r *http.Request) {
	var req SetRestockAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.MinQuantity == nil {
		response.Error(w, apierror.Validation("min_quantity is required"))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.alertService.SetRestockAlert(r.Context(), userID, req.ItemID, *req.MinQuantity); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]string{"status": "alert_set"})
}

// GetExpiryAlerts handles GET /api/v1/alerts/expiry
func (h *AlertHandler) GetExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	alerts, err := h.alertService.ExpiryAlerts(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, alerts)
}
