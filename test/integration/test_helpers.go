//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-catalog-api/internal/config"
	"go-catalog-api/internal/handler"
	"go-catalog-api/internal/middleware"
	"go-catalog-api/internal/model"
	"go-catalog-api/internal/router"
	"go-catalog-api/internal/service"
)

// In-memory stores implementing the service storage contracts, so the full
// HTTP stack can be exercised without PostgreSQL.

type memUserStore struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{rows: map[int64]model.User{}}
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.rows[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) Create(_ context.Context, fullname string, email string, passwordHash string, role string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.rows {
		if u.Email == email {
			return 0, model.ErrEmailTaken
		}
	}

	s.seq++
	now := time.Now().UTC()
	s.rows[s.seq] = model.User{
		ID: s.seq, Fullname: fullname, Email: email, PasswordHash: passwordHash,
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	return s.seq, nil
}

type memTokenStore struct {
	mu   sync.Mutex
	rows map[string]*model.RefreshTokenRecord
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: map[string]*model.RefreshTokenRecord{}}
}

func (s *memTokenStore) Save(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[tokenHash] = &model.RefreshTokenRecord{
		UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *memTokenStore) Rotate(_ context.Context, oldHash string, userID int64, newHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.rows[oldHash]
	if !ok || old.UserID != userID || !old.Active(time.Now()) {
		return model.ErrTokenNotFound
	}

	old.Revoked = true
	s.rows[newHash] = &model.RefreshTokenRecord{
		UserID: userID, TokenHash: newHash, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *memTokenStore) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.rows[tokenHash]
	if !ok || !record.Active(time.Now()) {
		return model.ErrTokenNotFound
	}
	record.Revoked = true
	return nil
}

type memCatalogStore struct {
	mu          sync.Mutex
	productSeq  int64
	categorySeq int64
	products    map[int64]model.Product
	categories  map[int64]model.Category
}

func newMemCatalogStore() *memCatalogStore {
	now := time.Now().UTC()
	return &memCatalogStore{
		categorySeq: 1,
		products:    map[int64]model.Product{},
		categories: map[int64]model.Category{
			model.UncategorizedCategoryID: {
				ID: model.UncategorizedCategoryID, Name: "Uncategorized",
				CreatedAt: now, UpdatedAt: now,
			},
		},
	}
}

func (s *memCatalogStore) matches(p model.Product, filters model.ProductFilters) bool {
	if !filters.IncludeDeleted && p.DeletedAt != nil {
		return false
	}
	if filters.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Name)) {
		return false
	}
	if filters.Price != nil && p.Price != *filters.Price {
		return false
	}
	if filters.Stock != nil && p.Stock != *filters.Stock {
		return false
	}
	if filters.CategoryID != nil && p.CategoryID != *filters.CategoryID {
		return false
	}
	return true
}

func (s *memCatalogStore) List(_ context.Context, filters model.ProductFilters, page int, limit int) ([]model.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []model.Product{}
	for _, p := range s.products {
		if s.matches(p, filters) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memCatalogStore) FindByID(_ context.Context, id int64) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return p, nil
}

func (s *memCatalogStore) Create(_ context.Context, req model.CreateProductRequest) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categoryID := model.UncategorizedCategoryID
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	}

	s.productSeq++
	now := time.Now().UTC()
	p := model.Product{
		ID: s.productSeq, Name: req.Name, Price: *req.Price, Stock: *req.Stock,
		ImageURL: req.ImageURL, CategoryID: categoryID, CreatedAt: now, UpdatedAt: now,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *memCatalogStore) Update(_ context.Context, id int64, req model.UpdateProductRequest) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.DeletedAt != nil {
		return model.Product{}, model.ErrProductNotFound
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		p.ImageURL = req.ImageURL
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return p, nil
}

func (s *memCatalogStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.DeletedAt != nil {
		return model.ErrProductNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	s.products[id] = p
	return nil
}

func (s *memCatalogStore) ListCategories(_ context.Context, includeDeleted bool, page int, limit int) ([]model.Category, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []model.Category{}
	for _, c := range s.categories {
		if !includeDeleted && c.DeletedAt != nil {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memCatalogStore) FindCategoryByID(_ context.Context, id int64) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, model.ErrCategoryNotFound
	}
	return c, nil
}

func (s *memCatalogStore) CreateCategory(_ context.Context, name string, description string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categorySeq++
	now := time.Now().UTC()
	s.categories[s.categorySeq] = model.Category{
		ID: s.categorySeq, Name: name, Description: description, CreatedAt: now, UpdatedAt: now,
	}
	return s.categorySeq, nil
}

func (s *memCatalogStore) UpdateCategory(_ context.Context, id int64, name string, description string) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.DeletedAt != nil {
		return model.Category{}, model.ErrCategoryNotFound
	}
	c.Name = name
	c.Description = description
	c.UpdatedAt = time.Now().UTC()
	s.categories[id] = c
	return c, nil
}

func (s *memCatalogStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.DeletedAt != nil {
		return model.ErrCategoryNotFound
	}
	now := time.Now().UTC()
	c.DeletedAt = &now
	s.categories[id] = c
	return nil
}

func (s *memCatalogStore) Reactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return model.ErrCategoryNotFound
	}
	c.DeletedAt = nil
	s.categories[id] = c
	return nil
}

func (s *memCatalogStore) DeleteDeactivated(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.DeletedAt == nil {
		return model.ErrCategoryNotDeactivated
	}

	for pid, p := range s.products {
		if p.CategoryID == id {
			p.CategoryID = model.UncategorizedCategoryID
			s.products[pid] = p
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *memCatalogStore) ProductsByCategory(ctx context.Context, categoryID int64, includeDeleted bool, page int, limit int) ([]model.Product, int, error) {
	return s.List(ctx, model.ProductFilters{CategoryID: &categoryID, IncludeDeleted: includeDeleted}, page, limit)
}

// categoryView adapts memCatalogStore to the category store contract, whose
// method names collide with the product ones.
type categoryView struct {
	store *memCatalogStore
}

func (v categoryView) List(ctx context.Context, includeDeleted bool, page int, limit int) ([]model.Category, int, error) {
	return v.store.ListCategories(ctx, includeDeleted, page, limit)
}

func (v categoryView) FindByID(ctx context.Context, id int64) (model.Category, error) {
	return v.store.FindCategoryByID(ctx, id)
}

func (v categoryView) Create(ctx context.Context, name string, description string) (int64, error) {
	return v.store.CreateCategory(ctx, name, description)
}

func (v categoryView) Update(ctx context.Context, id int64, name string, description string) (model.Category, error) {
	return v.store.UpdateCategory(ctx, id, name, description)
}

func (v categoryView) Deactivate(ctx context.Context, id int64) error {
	return v.store.Deactivate(ctx, id)
}

func (v categoryView) Reactivate(ctx context.Context, id int64) error {
	return v.store.Reactivate(ctx, id)
}

func (v categoryView) DeleteDeactivated(ctx context.Context, id int64) error {
	return v.store.DeleteDeactivated(ctx, id)
}

func (v categoryView) ProductsByCategory(ctx context.Context, categoryID int64, includeDeleted bool, page int, limit int) ([]model.Product, int, error) {
	return v.store.ProductsByCategory(ctx, categoryID, includeDeleted, page, limit)
}

type testEnv struct {
	server  *httptest.Server
	users   *memUserStore
	catalog *memCatalogStore
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		JWTAccessTTL:     time.Hour,
		JWTRefreshTTL:    168 * time.Hour,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	codec, err := service.NewTokenCodec(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	require.NoError(t, err)

	users := newMemUserStore()
	tokens := newMemTokenStore()
	catalog := newMemCatalogStore()

	authService := service.NewAuthService(codec, users, tokens)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	productService := service.NewProductService(catalog)
	categoryService := service.NewCategoryService(categoryView{store: catalog})

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Product:  handler.NewProductHandler(productService, ""),
		Category: handler.NewCategoryHandler(categoryService, ""),
		Docs:     handler.NewDocsHandler(""),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return &testEnv{server: server, users: users, catalog: catalog}
}

// seedAdmin inserts an admin account directly into the user store.
func (e *testEnv) seedAdmin(t *testing.T, email string, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	require.NoError(t, err)

	_, err = e.users.Create(context.Background(), "Web Admin", email, string(hash), model.RoleAdmin)
	require.NoError(t, err)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func doJSON(t *testing.T, method string, url string, body any, accessToken string) (*http.Response, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func decodeData[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func login(t *testing.T, env *testEnv, email string, password string) model.TokenPair {
	t.Helper()

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, parsed.Success)

	return decodeData[model.TokenPair](t, parsed.Data)
}
