package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fastfire9/empire-backend/internal/mailer"
	"github.com/fastfire9/empire-backend/internal/middleware"
	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/fastfire9/empire-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandler struct {
	sessions *middleware.SessionManager
	orders   service.OrderService
	products service.ProductService
	creds    service.CredentialService
	hashes   repository.FlaggedHashRepository
	mail     mailer.Mailer

	username     string
	passwordHash string
	ownerEmail   string

	failedLogins int32
}

func NewAdminHandler(
	sessions *middleware.SessionManager,
	orders service.OrderService,
	products service.ProductService,
	creds service.CredentialService,
	hashes repository.FlaggedHashRepository,
	mail mailer.Mailer,
	username, passwordHash, ownerEmail string,
) *AdminHandler {
	return &AdminHandler{
		sessions:     sessions,
		orders:       orders,
		products:     products,
		creds:        creds,
		hashes:       hashes,
		mail:         mail,
		username:     username,
		passwordHash: passwordHash,
		ownerEmail:   ownerEmail,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "username and password are required"))
	}

	ok := req.Username == h.username &&
		bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)) == nil
	if !ok {
		if n := atomic.AddInt32(&h.failedLogins, 1); n == 3 && h.ownerEmail != "" {
			if err := h.mail.Send(h.ownerEmail, "Admin Login Warning",
				"There have been 3 failed admin login attempts on your storefront."); err != nil {
				log.Printf("[mail] login warning failed: %v", err)
			}
		}
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "invalid credentials"))
	}

	atomic.StoreInt32(&h.failedLogins, 0)
	if err := h.sessions.SetAdmin(c); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "session error"))
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Logout(c echo.Context) error {
	_ = h.sessions.Clear(c)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Session(c echo.Context) error {
	if !h.sessions.IsAdmin(c) {
		return c.JSON(http.StatusUnauthorized, map[string]bool{"loggedIn": false})
	}
	return c.JSON(http.StatusOK, map[string]bool{"loggedIn": true})
}

type AdminOrderResponse struct {
	ID         uint64 `json:"id"`
	Reference  string `json:"reference"`
	ProductID  uint64 `json:"productId"`
	BuyerEmail string `json:"buyerEmail"`
	BuyerToken string `json:"buyerToken"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.orders.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to fetch orders"))
	}
	resp := make([]AdminOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, AdminOrderResponse{
			ID:         o.ID,
			Reference:  o.Reference,
			ProductID:  o.ProductID,
			BuyerEmail: o.BuyerEmail,
			BuyerToken: o.BuyerToken,
			Status:     string(o.Status),
			CreatedAt:  o.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) orderID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func (h *AdminHandler) orderAction(c echo.Context, action func(uint64) error) error {
	id, err := h.orderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	if err := action(id); err != nil {
		var illegal *model.IllegalTransitionError
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found"))
		case errors.As(err, &illegal):
			return c.JSON(http.StatusConflict, NewErrorResponse("illegal_transition", illegal.Error()))
		case errors.Is(err, service.ErrConflict):
			return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "order changed concurrently"))
		default:
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "order action failed"))
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) AcceptOrder(c echo.Context) error {
	ctx := c.Request().Context()
	return h.orderAction(c, func(id uint64) error { return h.orders.Accept(ctx, id) })
}

func (h *AdminHandler) DeclineOrder(c echo.Context) error {
	ctx := c.Request().Context()
	return h.orderAction(c, func(id uint64) error { return h.orders.Decline(ctx, id) })
}

func (h *AdminHandler) UnflagOrder(c echo.Context) error {
	ctx := c.Request().Context()
	return h.orderAction(c, func(id uint64) error { return h.orders.Unflag(ctx, id) })
}

// DeliverOrder forces fulfillment through the allocator, bypassing
// screenshot verification. Used after manual review of a flagged order has
// confirmed the payment out of band; the order must be moved back to a live
// status first (unflag, accept).
func (h *AdminHandler) DeliverOrder(c echo.Context) error {
	id, err := h.orderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	ctx := c.Request().Context()
	order, err := h.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to fetch order"))
	}
	product, err := h.products.Get(ctx, order.ProductID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to fetch product"))
	}
	if _, err := h.creds.FulfillOrder(ctx, order, product); err != nil {
		var illegal *model.IllegalTransitionError
		switch {
		case errors.Is(err, service.ErrExhausted):
			return c.JSON(http.StatusConflict, NewErrorResponse("no_credentials_available", "credential pool is empty, restock first"))
		case errors.As(err, &illegal):
			return c.JSON(http.StatusConflict, NewErrorResponse("illegal_transition", illegal.Error()))
		case errors.Is(err, service.ErrConflict):
			return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "order changed concurrently"))
		default:
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "fulfillment failed"))
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type productRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       string  `json:"price" validate:"required"`
	ImageURL    *string `json:"imageUrl"`
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "name and price are required"))
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid price"))
	}
	p, err := h.products.Create(c.Request().Context(), req.Name, req.Description, price, req.ImageURL)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusCreated, toProductResponse(p))
}

func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "name and price are required"))
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid price"))
	}
	p, err := h.products.Update(c.Request().Context(), id, req.Name, req.Description, price, req.ImageURL)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		}
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to delete product"))
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type provisionRequest struct {
	LoginEmail string `json:"loginEmail" validate:"required"`
	LoginPass  string `json:"loginPass" validate:"required"`
}

type CredentialSlotResponse struct {
	ID         uint64 `json:"id"`
	ProductID  uint64 `json:"productId"`
	LoginEmail string `json:"loginEmail"`
	Assigned   bool   `json:"assigned"`
}

func (h *AdminHandler) ProvisionCredential(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	var req provisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "loginEmail and loginPass are required"))
	}
	if _, err := h.products.Get(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
	}
	slot, err := h.creds.Provision(c.Request().Context(), id, req.LoginEmail, req.LoginPass)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusCreated, CredentialSlotResponse{
		ID:         slot.ID,
		ProductID:  slot.ProductID,
		LoginEmail: slot.LoginEmail,
		Assigned:   slot.Assigned,
	})
}

func (h *AdminHandler) ListCredentials(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid product id"))
	}
	slots, err := h.creds.ListByProduct(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to fetch credentials"))
	}
	resp := make([]CredentialSlotResponse, 0, len(slots))
	for _, s := range slots {
		resp = append(resp, CredentialSlotResponse{
			ID:         s.ID,
			ProductID:  s.ProductID,
			LoginEmail: s.LoginEmail,
			Assigned:   s.Assigned,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// PurgeFlaggedHashes removes flagged image hashes older than ?days=N.
// Retention is operator policy; nothing expires automatically.
func (h *AdminHandler) PurgeFlaggedHashes(c echo.Context) error {
	days, err := strconv.Atoi(c.QueryParam("days"))
	if err != nil || days < 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "days query param required"))
	}
	purged, err := h.hashes.PurgeOlderThan(c.Request().Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "purge failed"))
	}
	return c.JSON(http.StatusOK, map[string]int64{"purged": purged})
}
