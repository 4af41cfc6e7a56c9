package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
	"github.com/gerenciacar/gerenciacar-server/cmd/utils"
)

// CatalogHandler manages the service catalog appointments resolve their
// default duration and price from.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/services", h.GetServices).Methods("GET")
	router.HandleFunc("/services/{id}", h.GetService).Methods("GET")

	manage := utils.RequireRoles(models.RoleAdmin, models.RoleManager)
	router.Handle("/services", manage(http.HandlerFunc(h.CreateService))).Methods("POST")
	router.Handle("/services/{id}", manage(http.HandlerFunc(h.UpdateService))).Methods("PUT")
	router.Handle("/services/{id}", manage(http.HandlerFunc(h.DeactivateService))).Methods("DELETE")
}

func (h *CatalogHandler) GetServices(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Service{})

	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if active := r.URL.Query().Get("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var services []models.Service
	if err := query.Order("name ASC").Find(&services).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error retrieving services")
		return
	}
	utils.WriteJSON(w, http.StatusOK, services)
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "Service not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, service)
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var service models.Service
	if err := json.NewDecoder(r.Body).Decode(&service); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if service.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if service.DurationMinutes <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "Duration must be greater than zero")
		return
	}
	if service.Price < 0 {
		utils.WriteError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	if err := h.db.Create(&service).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error creating service")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, service)
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Service not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var update struct {
		Name            *string  `json:"name"`
		Description     *string  `json:"description"`
		DurationMinutes *int     `json:"duration_minutes"`
		Price           *float64 `json:"price"`
		MaterialCost    *float64 `json:"material_cost"`
		LaborCost       *float64 `json:"labor_cost"`
		Category        *string  `json:"category"`
		Active          *bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if update.Name != nil {
		service.Name = *update.Name
	}
	if update.Description != nil {
		service.Description = *update.Description
	}
	if update.DurationMinutes != nil {
		if *update.DurationMinutes <= 0 {
			utils.WriteError(w, http.StatusBadRequest, "Duration must be greater than zero")
			return
		}
		service.DurationMinutes = *update.DurationMinutes
	}
	if update.Price != nil {
		if *update.Price < 0 {
			utils.WriteError(w, http.StatusBadRequest, "Price must not be negative")
			return
		}
		service.Price = *update.Price
	}
	if update.MaterialCost != nil {
		service.MaterialCost = *update.MaterialCost
	}
	if update.LaborCost != nil {
		service.LaborCost = *update.LaborCost
	}
	if update.Category != nil {
		service.Category = *update.Category
	}
	if update.Active != nil {
		service.Active = *update.Active
	}

	if err := h.db.Save(&service).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error updating service")
		return
	}
	utils.WriteJSON(w, http.StatusOK, service)
}

// DeactivateService retires a catalog entry. Existing appointments keep
// referencing it, so the row is never removed.
func (h *CatalogHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	result := h.db.Model(&models.Service{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error deactivating service")
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteError(w, http.StatusNotFound, "Service not found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Service deactivated successfully",
	})
}
