package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/apierror"
)

type CategoryHandler struct {
	service       *service.CategoryService
	publicBaseURL string
}

func NewCategoryHandler(service *service.CategoryService, publicBaseURL string) *CategoryHandler {
	return &CategoryHandler{service: service, publicBaseURL: strings.TrimSpace(publicBaseURL)}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	categories, meta, err := h.service.List(r.Context(), q.includeDeleted, q.page, q.limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, categories, meta)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Products(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := parseListQuery(r)
	products, meta, err := h.service.ProductsByCategory(r.Context(), id, q.includeDeleted, q.page, q.limit, requestBaseURL(r, h.publicBaseURL))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, products, meta)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	categoryID, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"categoryId": categoryID}, nil)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	category, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Category deleted successfully")
}

func (h *CategoryHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Reactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Category reactivated successfully")
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Category deleted successfully. All products have been moved to the 'Uncategorized' category.")
}
