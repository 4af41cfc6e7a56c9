package client

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

type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

func (h *ClientHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/clients", h.GetClients).Methods("GET")
	router.HandleFunc("/clients", h.CreateClient).Methods("POST")
	router.HandleFunc("/clients/{id}", h.GetClient).Methods("GET")
	router.HandleFunc("/clients/{id}", h.UpdateClient).Methods("PUT")
	router.HandleFunc("/clients/{id}", h.DeactivateClient).Methods("DELETE")
	router.HandleFunc("/clients/{id}/vehicles", h.AddVehicle).Methods("POST")
	router.HandleFunc("/clients/{id}/vehicles", h.GetVehicles).Methods("GET")
}

func (h *ClientHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Client{}).Preload("Vehicles")

	if active := r.URL.Query().Get("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}
	if search := r.URL.Query().Get("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var clients []models.Client
	if err := query.Order("name ASC").Find(&clients).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error retrieving clients")
		return
	}
	utils.WriteJSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	var client models.Client
	if err := h.db.Preload("Vehicles").First(&client, id).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "Client not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if client.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}
	client.Active = true

	if err := h.db.Create(&client).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error creating client")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	var client models.Client
	if err := h.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Client not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var update struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		Phone  *string `json:"phone"`
		Active *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if update.Name != nil {
		client.Name = *update.Name
	}
	if update.Email != nil {
		client.Email = *update.Email
	}
	if update.Phone != nil {
		client.Phone = *update.Phone
	}
	if update.Active != nil {
		client.Active = *update.Active
	}

	if err := h.db.Save(&client).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error updating client")
		return
	}
	utils.WriteJSON(w, http.StatusOK, client)
}

// DeactivateClient keeps the record for appointment history and reporting.
func (h *ClientHandler) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	result := h.db.Model(&models.Client{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error deactivating client")
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteError(w, http.StatusNotFound, "Client not found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Client deactivated successfully",
	})
}

func (h *ClientHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	var client models.Client
	if err := h.db.First(&client, id).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "Client not found")
		return
	}

	var vehicle models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if vehicle.VModel == "" {
		utils.WriteError(w, http.StatusBadRequest, "Vehicle model is required")
		return
	}
	vehicle.ClientID = client.ID

	if err := h.db.Create(&vehicle).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error creating vehicle")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, vehicle)
}

func (h *ClientHandler) GetVehicles(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid client ID")
		return
	}

	var vehicles []models.Vehicle
	if err := h.db.Where("client_id = ?", id).Find(&vehicles).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error retrieving vehicles")
		return
	}
	utils.WriteJSON(w, http.StatusOK, vehicles)
}
