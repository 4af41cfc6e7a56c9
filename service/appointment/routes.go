package appointment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
	"github.com/gerenciacar/gerenciacar-server/cmd/utils"
	"github.com/gerenciacar/gerenciacar-server/service/scheduling"
)

type AppointmentHandler struct {
	svc *scheduling.Service
	log *slog.Logger
}

func NewAppointmentHandler(svc *scheduling.Service, log *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log}
}

func (h *AppointmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/appointments", h.CreateAppointment).Methods("POST")
	router.HandleFunc("/appointments", h.ListAppointments).Methods("GET")
	router.HandleFunc("/appointments/range", h.ListAppointmentsByRange).Methods("GET")
	router.HandleFunc("/appointments/{id}", h.GetAppointment).Methods("GET")
	router.HandleFunc("/appointments/{id}", h.UpdateAppointment).Methods("PUT")
	router.HandleFunc("/appointments/{id}/cancel", h.CancelAppointment).Methods("PATCH")
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		ClientID          uint                     `json:"client_id"`
		ServiceID         uint                     `json:"service_id"`
		Date              string                   `json:"date"`
		Time              string                   `json:"time"`
		VehicleID         *uint                    `json:"vehicle_id"`
		ResponsibleUserID *uint                    `json:"responsible_user_id"`
		DurationMinutes   *int                     `json:"duration_minutes"`
		TotalPrice        *float64                 `json:"total_price"`
		Status            models.AppointmentStatus `json:"status"`
		AppointmentType   string                   `json:"appointment_type"`
		PaymentMethod     string                   `json:"payment_method"`
		Notes             string                   `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	appt, err := h.svc.Create(r.Context(), scheduling.CreateInput{
		ClientID:          req.ClientID,
		ServiceID:         req.ServiceID,
		Date:              req.Date,
		Time:              req.Time,
		VehicleID:         req.VehicleID,
		ResponsibleUserID: req.ResponsibleUserID,
		DurationMinutes:   req.DurationMinutes,
		TotalPrice:        req.TotalPrice,
		Status:            req.Status,
		AppointmentType:   req.AppointmentType,
		PaymentMethod:     req.PaymentMethod,
		Notes:             req.Notes,
	}, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, appt)
}

func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if date := r.URL.Query().Get("date"); date != "" {
		appointments, err := h.svc.ListByDate(r.Context(), date, actor)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, appointments)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize := 100

	appointments, total, err := h.svc.ListAll(r.Context(), page, pageSize, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"total_pages":  (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

func (h *AppointmentHandler) ListAppointmentsByRange(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if startParam == "" || endParam == "" {
		utils.WriteError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "start must be an RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, endParam)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "end must be an RFC3339 timestamp")
		return
	}

	appointments, err := h.svc.ListByRange(r.Context(), start, end, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	appt, err := h.svc.GetByID(r.Context(), id, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	var patch scheduling.UpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	appt, err := h.svc.Update(r.Context(), id, patch, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	appt, err := h.svc.Cancel(r.Context(), id, actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Appointment cancelled successfully",
		"appointment": appt,
	})
}

func (h *AppointmentHandler) actor(r *http.Request) (scheduling.Actor, error) {
	actor, err := utils.GetActorFromContext(r)
	if err != nil {
		return scheduling.Actor{}, err
	}
	return scheduling.Actor{ID: actor.ID, Role: actor.Role}, nil
}

// writeServiceError maps the scheduling error taxonomy onto HTTP status
// codes. Storage errors stay opaque to the caller and are logged server-side.
func (h *AppointmentHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		utils.WriteError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, scheduling.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, scheduling.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, scheduling.ErrConflict):
		utils.WriteError(w, http.StatusConflict, "Time slot conflicts with an existing appointment")
	default:
		h.log.Error("appointment operation failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
