package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"retailpos/m/domain"
	"retailpos/m/internal/catalog"
	"retailpos/m/internal/sale"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

// saleTimeout bounds one commit attempt; past it the transaction rolls
// back and the whole call may be retried.
const saleTimeout = 10 * time.Second

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db       *sqlx.DB
	secret   string
	sales    *sale.Coordinator
	products *catalog.Repo
}

// New constructs a Handler.
func New(db *sqlx.DB, secret string, logger zerolog.Logger) *Handler {
	return &Handler{
		db:       db,
		secret:   secret,
		sales:    sale.NewCoordinator(db, logger),
		products: catalog.NewRepo(db),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Post("/auth/register", h.register)
		pr.Post("/auth/reset-password", h.resetPassword)

		pr.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/search", h.searchProducts)
			r.Get("/{id}", h.getProduct)
			r.Post("/", h.addProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Post("/", h.createSale)
			r.Get("/{id}", h.getSale)
		})

		pr.Get("/reports/sales/daily", h.dailySales)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID int64, username, role string) (string, error) {
	claims := authClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		if !domain.ValidRole(claims.Role) {
			respondError(w, http.StatusForbidden, "unknown role")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	role := r.Context().Value(ctxRole)
	if role == nil {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	current := role.(string)
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

// Auth handlers

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  domain.Account `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var acc domain.Account
	err := h.db.Get(&acc, `SELECT id, username, password, role, created_at FROM accounts WHERE username = ?`, req.Username)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(acc.ID, acc.Username, acc.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	acc.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: acc})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleManager) {
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if !domain.ValidRole(req.Role) {
		respondError(w, http.StatusBadRequest, "role must be manager or cashier")
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = ?)`, req.Username); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check username")
		return
	}
	if exists {
		respondError(w, http.StatusConflict, "username already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	res, err := h.db.Exec(`INSERT INTO accounts (username, password, role) VALUES (?, ?, ?)`, req.Username, hashed, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create account")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, domain.Account{ID: id, Username: req.Username, Role: req.Role})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	uid := r.Context().Value(ctxUserID).(int64)
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if _, err := h.db.Exec(`UPDATE accounts SET password = ? WHERE id = ?`, hashed, uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// Product handlers

type productRequest struct {
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (req *productRequest) validate() string {
	if req.ItemID <= 0 {
		return "item_id must be positive"
	}
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if req.Quantity < 0 {
		return "quantity cannot be negative"
	}
	if req.Price.IsNegative() {
		return "price cannot be negative"
	}
	return ""
}

func (req *productRequest) product() *domain.Product {
	return &domain.Product{
		ItemID:   req.ItemID,
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Quantity: req.Quantity,
		Price:    req.Price,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("query"))
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	products, err := h.products.Search(r.Context(), keyword)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to search products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.products.ProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load product")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleManager) {
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.products.Add(r.Context(), req.product()); err != nil {
		switch {
		case errors.Is(err, catalog.ErrDuplicateID):
			respondError(w, http.StatusConflict, "item id already exists")
		case errors.Is(err, catalog.ErrDuplicateName):
			respondError(w, http.StatusConflict, "product name already exists")
		default:
			respondError(w, http.StatusInternalServerError, "unable to add product")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"item_id": req.ItemID, "name": req.Name})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleManager) {
		return
	}
	oldID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.products.Update(r.Context(), req.product(), oldID); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			respondError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, catalog.ErrDuplicateID):
			respondError(w, http.StatusConflict, "item id already exists")
		default:
			respondError(w, http.StatusInternalServerError, "unable to update product")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleManager) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sales handlers

type saleLineRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type saleRequest struct {
	Items   []saleLineRequest `json:"items"`
	Total   *decimal.Decimal  `json:"total,omitempty"`
	Payment decimal.Decimal   `json:"payment"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleManager, domain.RoleCashier) {
		return
	}

	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]sale.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = sale.Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), saleTimeout)
	defer cancel()

	saleID, err := h.sales.CommitSale(ctx, lines, req.Total, req.Payment)
	if err != nil {
		h.respondSaleError(w, err)
		return
	}

	total := sale.Total(lines)
	respondJSON(w, http.StatusCreated, map[string]any{
		"sale_id": saleID,
		"total":   total,
		"payment": req.Payment,
		"balance": req.Payment.Sub(total),
	})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	s, items, err := h.sales.GetSale(r.Context(), id)
	if err != nil {
		h.respondSaleError(w, err)
		return
	}
	if items == nil {
		items = []domain.SaleItem{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sale": s, "items": items})
}

func (h *Handler) respondSaleError(w http.ResponseWriter, err error) {
	var validation *sale.ValidationError
	var short *sale.InsufficientStockError
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &short):
		respondError(w, http.StatusConflict, short.Error())
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, sale.ErrSaleNotFound):
		respondError(w, http.StatusNotFound, "sale not found")
	default:
		respondError(w, http.StatusInternalServerError, "unable to record sale")
	}
}

// Reports

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleManager) {
		return
	}
	var revenue sql.NullFloat64
	var count int64
	err := h.db.QueryRow(`SELECT COALESCE(SUM(total),0) AS revenue, COUNT(*) AS count FROM sales WHERE DATE(created_at) = DATE('now')`).Scan(&revenue, &count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch daily sales")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"revenue": revenue.Float64, "sales_count": count})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
