package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Message: message,
	})
}

// writeError maps service failures onto the wire taxonomy. Anything not
// classified is reported as a generic 500; the detail only goes to the log.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenInvalid), errors.Is(err, model.ErrTokenNotFound):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	case errors.Is(err, model.ErrProductNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Product not found"
	case errors.Is(err, model.ErrCategoryNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Category not found"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("Invalid ID", raw)
	}
	return id, nil
}

// requireFields reports the missing required fields the way the API has
// always phrased it: "Missing required fields: a, b".
func requireFields(values map[string]string, fields ...string) error {
	missing := []string{}
	for _, name := range fields {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apierror.BadRequest("Missing required fields: "+strings.Join(missing, ", "), "")
	}
	return nil
}

type listQuery struct {
	page           int
	limit          int
	includeDeleted bool
}

func parseListQuery(r *http.Request) listQuery {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return listQuery{
		page:           page,
		limit:          limit,
		includeDeleted: q.Get("includeSoftDeleted") == "true",
	}
}

// requestBaseURL resolves the absolute base URL used to rewrite stored image
// paths. A configured public base URL wins over the request host.
func requestBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}
