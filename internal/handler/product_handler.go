package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/apierror"
)

type ProductHandler struct {
	service       *service.ProductService
	publicBaseURL string
}

func NewProductHandler(service *service.ProductService, publicBaseURL string) *ProductHandler {
	return &ProductHandler{service: service, publicBaseURL: strings.TrimSpace(publicBaseURL)}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	filters := model.ProductFilters{
		Name:           strings.TrimSpace(r.URL.Query().Get("name")),
		IncludeDeleted: q.includeDeleted,
	}
	if raw := r.URL.Query().Get("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, apierror.BadRequest("Invalid price filter", raw))
			return
		}
		filters.Price = &price
	}
	if raw := r.URL.Query().Get("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apierror.BadRequest("Invalid stock filter", raw))
			return
		}
		filters.Stock = &stock
	}

	products, meta, err := h.service.List(r.Context(), filters, q.page, q.limit, requestBaseURL(r, h.publicBaseURL))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, products, meta)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.GetByID(r.Context(), id, requestBaseURL(r, h.publicBaseURL))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	product, err := h.service.Create(r.Context(), payload, requestBaseURL(r, h.publicBaseURL))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, product, nil)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	product, err := h.service.Update(r.Context(), id, payload, requestBaseURL(r, h.publicBaseURL))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Product deleted successfully")
}
