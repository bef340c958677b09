package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/server/sos"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
)

const SOS_SENT_MESSAGE = "SOS sent!"

type registerTokenRequest struct {
	UserID string `json:"userId" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// lat & lon are any JSON value, only their presence is checked
type alertRequest struct {
	UserID string            `json:"userId" validate:"required"`
	Lat    models.Coordinate `json:"lat" validate:"required"`
	Lon    models.Coordinate `json:"lon" validate:"required"`
}

type testNotificationRequest struct {
	UserID string `json:"userId" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

type alertResponse struct {
	Message string `json:"message"`
	*sos.AlertResult
}

type alertErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	*sos.AlertResult
}

type handler struct {
	service  *sos.Service
	profiles sos.ProfileStore
	validate *validator.Validate
}

func (h *handler) registerToken(rw http.ResponseWriter, r *http.Request) {
	data := registerTokenRequest{}
	if !decodeBody(rw, r, &data) {
		return
	}

	if err := h.validate.Struct(data); err != nil {
		writeError(rw, "userId and token required", err, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.RegisterToken(r.Context(), data.UserID, data.Token)
	if err != nil {
		writeError(rw, "Failed to register token", err, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, map[string]interface{}{"success": true, "tokens": tokens}, http.StatusOK)
}

func (h *handler) createAlert(rw http.ResponseWriter, r *http.Request) {
	data := alertRequest{}
	if !decodeBody(rw, r, &data) {
		return
	}

	if err := h.validate.Struct(data); err != nil {
		writeError(rw, "userId, lat, lon required", err, http.StatusBadRequest)
		return
	}

	// Contacts are still notified if the client goes away mid request
	result, err := h.service.CreateAlert(context.WithoutCancel(r.Context()), data.UserID, data.Lat, data.Lon)
	recordAlert(result)
	if err != nil {
		logError("Failed to create alert", err, http.StatusInternalServerError)
		writeResponse(rw, alertErrorResponse{
			Error:       "Failed to create alert",
			Details:     err.Error(),
			AlertResult: result,
		}, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, alertResponse{Message: SOS_SENT_MESSAGE, AlertResult: result}, http.StatusOK)
}

func (h *handler) sendTestNotification(rw http.ResponseWriter, r *http.Request) {
	data := testNotificationRequest{}
	if !decodeBody(rw, r, &data) {
		return
	}

	if err := h.validate.Struct(data); err != nil {
		writeError(rw, "userId, title, body required", err, http.StatusBadRequest)
		return
	}

	result, err := h.service.SendTestNotification(r.Context(), data.UserID, data.Title, data.Body)
	if errors.Is(err, sos.ErrNoTokens) {
		writeError(rw, "No tokens found", err, http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(rw, "Failed to send test notification", err, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, map[string]interface{}{
		"success": true,
		"sent":    result.SuccessCount,
		"failed":  result.FailureCount,
	}, http.StatusOK)
}

func (h *handler) listAlerts(rw http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListAlerts(r.Context())
	if err != nil {
		writeError(rw, "Failed to fetch alerts", err, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, map[string]interface{}{"alerts": alerts}, http.StatusOK)
}

func (h *handler) cancelAlert(rw http.ResponseWriter, r *http.Request) {
	alertID := mux.Vars(r)["id"]

	err := h.service.CancelAlert(r.Context(), alertID)
	if errors.Is(err, models.ErrAlertNotFound) {
		writeError(rw, "Alert not found", err, http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(rw, "Failed to cancel alert", err, http.StatusInternalServerError)
		return
	}
	alertsCancelled.Inc()

	writeResponse(rw, map[string]interface{}{"success": true, "alertId": alertID}, http.StatusOK)
}

func health(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, map[string]string{"status": "ok"}, http.StatusOK)
}

// notFound & methodNotAllowed run without the route middlewares
func notFound(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	writeError(rw, "Not found", fmt.Errorf("%v %v", r.Method, r.RequestURI), http.StatusNotFound)
}

func methodNotAllowed(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	writeError(rw, "Method not allowed", fmt.Errorf("%v %v", r.Method, r.RequestURI), http.StatusMethodNotAllowed)
}
