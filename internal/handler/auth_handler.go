package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-catalog-api/internal/middleware"
	"go-catalog-api/internal/model"
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if err := requireFields(map[string]string{
		"email":    payload.Email,
		"password": payload.Password,
	}, "email", "password"); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if err := requireFields(map[string]string{
		"fullname": payload.Fullname,
		"email":    payload.Email,
		"password": payload.Password,
	}, "fullname", "email", "password"); err != nil {
		writeError(w, err)
		return
	}

	userID, err := h.service.Register(r.Context(), payload.Fullname, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.RegisterResponse{UserID: userID}, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if err := requireFields(map[string]string{"refreshToken": payload.RefreshToken}, "refreshToken"); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if err := requireFields(map[string]string{"refreshToken": payload.RefreshToken}, "refreshToken"); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Logout(r.Context(), payload.RefreshToken); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Logout successful")
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("No token provided"))
		return
	}

	profile, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}
