package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
	"github.com/gerenciacar/gerenciacar-server/cmd/utils"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard/stats", h.GetStats).Methods("GET")

	finance := utils.RequireRoles(models.RoleAdmin, models.RoleManager)
	router.Handle("/dashboard/finance", finance(http.HandlerFunc(h.GetFinanceSummary))).Methods("GET")
}

type statsResponse struct {
	ActiveClients       int64   `json:"active_clients"`
	AppointmentsToday   int64   `json:"appointments_today"`
	CompletedThisMonth  int64   `json:"completed_this_month"`
	RevenueThisMonth    float64 `json:"revenue_this_month"`
	PendingAppointments int64   `json:"pending_appointments"`
}

func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var stats statsResponse

	if err := h.db.Model(&models.Client{}).
		Where("active = ?", true).
		Count(&stats.ActiveClients).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error computing dashboard stats")
		return
	}

	if err := h.db.Model(&models.Appointment{}).
		Where("start_at >= ? AND start_at < ?", dayStart, dayEnd).
		Where("status <> ?", models.StatusCancelled).
		Count(&stats.AppointmentsToday).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error computing dashboard stats")
		return
	}

	if err := h.db.Model(&models.Appointment{}).
		Where("start_at >= ? AND start_at < ?", monthStart, monthEnd).
		Where("status = ?", models.StatusCompleted).
		Count(&stats.CompletedThisMonth).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error computing dashboard stats")
		return
	}

	if err := h.db.Model(&models.Appointment{}).
		Where("start_at >= ? AND start_at < ?", monthStart, monthEnd).
		Where("status = ?", models.StatusCompleted).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&stats.RevenueThisMonth).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error computing dashboard stats")
		return
	}

	if err := h.db.Model(&models.Appointment{}).
		Where("status = ?", models.StatusPending).
		Count(&stats.PendingAppointments).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error computing dashboard stats")
		return
	}

	utils.WriteJSON(w, http.StatusOK, stats)
}

type financeSummary struct {
	Revenue       float64 `json:"revenue"`
	MaterialCost  float64 `json:"material_cost"`
	LaborCost     float64 `json:"labor_cost"`
	Profit        float64 `json:"profit"`
	CompletedJobs int64   `json:"completed_jobs"`
}

// GetFinanceSummary aggregates completed appointments over a date range.
// Costs come from the catalog entry each appointment references.
func (h *DashboardHandler) GetFinanceSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	if param := r.URL.Query().Get("start"); param != "" {
		parsed, err := time.Parse("2006-01-02", param)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "start must be formatted as YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if param := r.URL.Query().Get("end"); param != "" {
		parsed, err := time.Parse("2006-01-02", param)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "end must be formatted as YYYY-MM-DD")
			return
		}
		// The end date is inclusive, so the window closes at the next midnight.
		end = parsed.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		utils.WriteError(w, http.StatusBadRequest, "start must be before end")
		return
	}

	completed := h.db.Model(&models.Appointment{}).
		Joins("LEFT JOIN services ON services.id = appointments.service_id").
		Where("appointments.status = ?", models.StatusCompleted).
		Where("appointments.start_at >= ? AND appointments.start_at < ?", start, end)

	var summary financeSummary
	if err := completed.
		Select("COALESCE(SUM(appointments.total_price), 0) AS revenue, " +
			"COALESCE(SUM(services.material_cost), 0) AS material_cost, " +
			"COALESCE(SUM(services.labor_cost), 0) AS labor_cost, " +
			"COUNT(appointments.id) AS completed_jobs").
		Scan(&summary).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error computing finance summary")
		return
	}
	summary.Profit = summary.Revenue - summary.MaterialCost - summary.LaborCost

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"start":   start.Format("2006-01-02"),
		"end":     end.AddDate(0, 0, -1).Format("2006-01-02"),
		"summary": summary,
	})
}
