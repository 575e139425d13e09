package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"peelojuice/internal/auth"
	"peelojuice/internal/cart"
	"peelojuice/internal/cart/api"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
)

// In-memory layers, just enough for the add-item path.

type stubDB struct {
	cart  *models.Cart
	added []*models.CartItem
}

func (s *stubDB) GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	return s.cart, nil
}

func (s *stubDB) CreateCart(ctx context.Context, cart *models.Cart) error {
	s.cart = cart
	return nil
}

func (s *stubDB) GetItem(ctx context.Context, cartID, juiceID string) (*models.CartItem, error) {
	return nil, nil
}

func (s *stubDB) UpsertItem(ctx context.Context, item *models.CartItem) error {
	s.added = append(s.added, item)
	return nil
}

func (s *stubDB) UpdateItem(ctx context.Context, item *models.CartItem) error { return nil }

func (s *stubDB) DeleteItem(ctx context.Context, cartID, juiceID string) (bool, error) {
	return false, nil
}

func (s *stubDB) ClearItems(ctx context.Context, cartID string) error { return nil }

func (s *stubDB) SetCoupon(ctx context.Context, cartID, couponID string) error { return nil }

type stubCatalog struct{}

func (s *stubCatalog) GetActiveJuice(ctx context.Context, juiceID string) (*models.Juice, error) {
	return &models.Juice{ID: juiceID, Name: "Mosambi", Price: decimal.RequireFromString("50.00")}, nil
}

type stubCoupons struct{}

func (s *stubCoupons) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return nil, nil
}

func (s *stubCoupons) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	return nil, nil
}

func addItemRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	return r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: "user-1"}))
}

func TestAddItemDefaultsMissingQuantityToOne(t *testing.T) {
	db := &stubDB{}
	svc := cart.NewCartService(db, &stubCatalog{}, &stubCoupons{}, logger.NewLogger())
	h := api.NewHandler(svc, logger.NewLogger())

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(`{"juice_id":"j1"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, db.added, 1)
	assert.Equal(t, 1, db.added[0].Quantity)
}

func TestAddItemRejectsExplicitZeroQuantity(t *testing.T) {
	db := &stubDB{}
	svc := cart.NewCartService(db, &stubCatalog{}, &stubCoupons{}, logger.NewLogger())
	h := api.NewHandler(svc, logger.NewLogger())

	w := httptest.NewRecorder()
	h.AddItem(w, addItemRequest(`{"juice_id":"j1","quantity":0}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Quantity must be at least 1")
	assert.Empty(t, db.added)
}
