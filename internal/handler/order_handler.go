package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// Screenshots larger than this are rejected outright.
const maxScreenshotBytes = 10 << 20

type OrderHandler struct {
	svc    service.OrderService
	verify service.VerificationService
}

func NewOrderHandler(svc service.OrderService, verify service.VerificationService) *OrderHandler {
	return &OrderHandler{svc: svc, verify: verify}
}

type PlaceOrderRequest struct {
	ProductID  uint64 `json:"productId" validate:"required"`
	BuyerEmail string `json:"buyerEmail" validate:"required,email"`
}

type OrderResponse struct {
	Reference  string `json:"reference"`
	ProductID  uint64 `json:"productId"`
	BuyerToken string `json:"buyerToken"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		Reference:  o.Reference,
		ProductID:  o.ProductID,
		BuyerToken: o.BuyerToken,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
}

func (h *OrderHandler) Place(c echo.Context) error {
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "productId and a valid buyerEmail are required"))
	}
	order, err := h.svc.Place(c.Request().Context(), req.ProductID, req.BuyerEmail)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "product not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "order placement failed"))
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) GetByReference(c echo.Context) error {
	order, err := h.svc.GetByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "failed to fetch order"))
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

type VerifyResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

// buyerMessages keeps the buyer-facing text generic; the operator mail
// carries the full OCR text and scores.
var buyerMessages = map[service.Outcome]string{
	service.OutcomeVerified:  "Payment verified. Your access info is on its way to your email.",
	service.OutcomeFlagged:   "Your payment is under review. You will hear from us shortly.",
	service.OutcomeRejected:  "Verification failed. Check that your buyer token is visible in the payment note and try again.",
	service.OutcomeDuplicate: "This screenshot was already submitted.",
	service.OutcomeExhausted: "Payment verified. Your access info will be sent as soon as it is available.",
}

func (h *OrderHandler) VerifyScreenshot(c echo.Context) error {
	file, err := c.FormFile("screenshot")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "no screenshot uploaded"))
	}
	if file.Size > maxScreenshotBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", "screenshot exceeds 10MB"))
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable upload"))
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxScreenshotBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxScreenshotBytes {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable upload"))
	}

	result, err := h.verify.VerifyScreenshot(c.Request().Context(), data, file.Header.Get("Content-Type"))
	if err != nil {
		// Infrastructure fault: nothing was mutated, the buyer may retry.
		return c.JSON(http.StatusBadGateway, NewErrorResponse("service_error", "verification is temporarily unavailable, please retry"))
	}
	return c.JSON(http.StatusOK, VerifyResponse{
		Outcome: string(result.Outcome),
		Message: buyerMessages[result.Outcome],
	})
}
