package user

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
	"github.com/gerenciacar/gerenciacar-server/cmd/utils"
)

type Handler struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewHandler(db *gorm.DB, secret string, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		db:         db,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// RegisterPublicRoutes wires the endpoints that must work without a token.
func (h *Handler) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/login", h.handleLogin).Methods("POST")
	router.HandleFunc("/register", h.handleRegister).Methods("POST")
	router.HandleFunc("/refresh", h.handleRefreshToken).Methods("POST")
}

// RegisterRoutes wires the authenticated endpoints. User management is
// admin-only.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/me", h.handleMe).Methods("GET")

	admin := utils.RequireRoles(models.RoleAdmin)
	router.Handle("/users", admin(http.HandlerFunc(h.GetUsers))).Methods("GET")
	router.Handle("/users", admin(http.HandlerFunc(h.CreateUser))).Methods("POST")
	router.Handle("/users/{id}", admin(http.HandlerFunc(h.GetUser))).Methods("GET")
	router.Handle("/users/{id}", admin(http.HandlerFunc(h.UpdateUser))).Methods("PUT")
	router.Handle("/users/{id}", admin(http.HandlerFunc(h.DeleteUser))).Methods("DELETE")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", loginRequest.Email).First(&user).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.Active {
		utils.WriteError(w, http.StatusUnauthorized, "Account is inactive, contact an administrator")
		return
	}

	accessToken, err := h.generateJWT(user)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error generating access token")
		return
	}

	refreshToken, err := h.generateRefreshToken(user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error generating refresh token")
		return
	}
	if err := h.saveRefreshToken(user.ID, refreshToken); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error saving refresh token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": map[string]interface{}{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var registerRequest struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if registerRequest.FullName == "" || registerRequest.Email == "" || registerRequest.Password == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	role := registerRequest.Role
	if role == "" {
		role = models.RoleFrontDesk
	}
	if !models.ValidRole(role) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	var existing models.User
	if result := h.db.Where("email = ?", registerRequest.Email).First(&existing); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.WriteError(w, http.StatusConflict, "Email is already in use")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	user := models.User{
		FullName:     registerRequest.FullName,
		Email:        registerRequest.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Active:       true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	accessToken, err := h.generateJWT(user)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error generating access token")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"access_token": accessToken,
		"user": map[string]interface{}{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}

func (h *Handler) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var refreshRequest struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&refreshRequest); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var user models.User
	if err := h.db.Where("refresh_token = ?", refreshRequest.RefreshToken).First(&user).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	// Deactivation is the revocation mechanism. An inactive account must not
	// keep minting access tokens, so its refresh token is invalidated too.
	if !user.Active {
		h.clearRefreshToken(user.ID)
		utils.WriteError(w, http.StatusUnauthorized, "Account is inactive, contact an administrator")
		return
	}
	if user.RefreshTokenExpiredAt.Before(time.Now()) {
		utils.WriteError(w, http.StatusUnauthorized, "Refresh token expired")
		return
	}

	accessToken, err := h.generateJWT(user)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error generating access token")
		return
	}

	// Rotate the refresh token on every use.
	refreshToken, err := h.generateRefreshToken(user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error generating refresh token")
		return
	}
	if err := h.saveRefreshToken(user.ID, refreshToken); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error saving refresh token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, err := utils.GetActorFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var user models.User
	if err := h.db.First(&user, actor.ID).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.db.Order("full_name ASC").Find(&users).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error retrieving users")
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var createRequest struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Active   *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&createRequest); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if createRequest.FullName == "" || createRequest.Email == "" || createRequest.Password == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if createRequest.Role != "" && !models.ValidRole(createRequest.Role) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	var existing models.User
	if result := h.db.Where("email = ?", createRequest.Email).First(&existing); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.WriteError(w, http.StatusConflict, "Email is already in use")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(createRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	role := createRequest.Role
	if role == "" {
		role = models.RoleFrontDesk
	}
	active := true
	if createRequest.Active != nil {
		active = *createRequest.Active
	}

	user := models.User{
		FullName:     createRequest.FullName,
		Email:        createRequest.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Active:       active,
	}
	if err := h.db.Create(&user).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error creating user")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	var update struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
		Role     *string `json:"role"`
		Active   *bool   `json:"active"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Role != nil {
		if !models.ValidRole(*update.Role) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid role")
			return
		}
		user.Role = *update.Role
	}
	if update.Active != nil {
		user.Active = *update.Active
	}
	if update.Password != nil {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Error hashing password")
			return
		}
		user.PasswordHash = string(passwordHash)
	}

	if err := h.db.Save(&user).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error updating user")
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	result := h.db.Delete(&models.User{}, id)
	if result.Error != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Error deleting user")
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "User deleted successfully",
	})
}

func (h *Handler) generateJWT(user models.User) (string, error) {
	claims := &utils.Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func (h *Handler) generateRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(fmt.Sprintf("%d", userID)))
	mac.Write(b)
	signature := mac.Sum(nil)

	return fmt.Sprintf("%d_%x_%x", userID, b, signature), nil
}

func (h *Handler) saveRefreshToken(userID uint, refreshToken string) error {
	return h.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"refresh_token":            refreshToken,
		"refresh_token_expired_at": time.Now().Add(h.refreshTTL),
	}).Error
}

func (h *Handler) clearRefreshToken(userID uint) {
	h.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token", "")
}
