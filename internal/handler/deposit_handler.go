package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brokerlite/internal/middleware"
	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/payment"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/internal/service"
	"github.com/brokerlite/pkg/response"
)

// DepositHandler handles deposit and payment-gateway API requests
type DepositHandler struct {
	depositService *service.DepositService
}

// NewDepositHandler creates a new DepositHandler
func NewDepositHandler(depositService *service.DepositService) *DepositHandler {
	return &DepositHandler{depositService: depositService}
}

// CreateDeposit records a pending deposit
// POST /api/v1/deposits
func (h *DepositHandler) CreateDeposit(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	deposit, err := h.depositService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTransactionID):
			response.Conflict(c, response.CodeDuplicateTransactionID, "transaction id already recorded")
		case errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrInvalidPaymentMethod):
			response.BadRequest(c, response.CodeValidation, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, deposit)
}

// ListDeposits lists the user's deposits, optionally filtered by status
// GET /api/v1/deposits?status=pending
func (h *DepositHandler) ListDeposits(c *gin.Context) {
	userID := middleware.GetUserID(c)
	status := models.DepositStatus(c.Query("status"))
	limit, offset := pagination(c)

	deposits, err := h.depositService.List(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDepositStatus) {
			response.BadRequest(c, response.CodeValidation, err.Error())
			return
		}
		response.InternalError(c)
		return
	}
	response.Success(c, deposits)
}

type reconcileDepositRequest struct {
	Status models.DepositStatus `json:"status" binding:"required"`
}

// ReconcileDeposit moves a deposit to a terminal status
// PUT /api/v1/deposits/:id
func (h *DepositHandler) ReconcileDeposit(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, response.CodeValidation, "invalid deposit id")
		return
	}

	var req reconcileDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	deposit, err := h.depositService.Reconcile(c.Request.Context(), userID, uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDepositNotFound):
			response.NotFound(c, response.CodeNotFound, "deposit not found")
		case errors.Is(err, service.ErrDepositNotOwned):
			response.Forbidden(c, "deposit belongs to another user")
		case errors.Is(err, service.ErrInvalidDepositStatus):
			response.BadRequest(c, response.CodeValidation, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.Success(c, deposit)
}

// CreateCharge starts a gateway checkout and records the pending deposit
// POST /api/v1/payments/:provider/charge
func (h *DepositHandler) CreateCharge(c *gin.Context) {
	userID := middleware.GetUserID(c)
	provider := c.Param("provider")

	var req service.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	result, err := h.depositService.Charge(c.Request.Context(), userID, provider, &req)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrGatewayNotFound):
			response.NotFound(c, response.CodeNotFound, "unknown payment provider")
		case errors.Is(err, service.ErrInvalidAmount):
			response.BadRequest(c, response.CodeValidation, err.Error())
		case errors.Is(err, payment.ErrChargeFailed):
			response.Error(c, http.StatusBadGateway, response.CodeInternalError, "payment gateway rejected the charge")
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, result)
}

// HandleCallback processes a gateway payment callback. The route is
// unauthenticated; trust comes from the callback signature.
// GET|POST /api/v1/payments/:provider/callback
func (h *DepositHandler) HandleCallback(c *gin.Context) {
	provider := c.Param("provider")

	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err == nil {
			for key, values := range c.Request.PostForm {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}
		}
	}

	deposit, err := h.depositService.HandleCallback(c.Request.Context(), provider, params)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrGatewayNotFound):
			response.NotFound(c, response.CodeNotFound, "unknown payment provider")
		case errors.Is(err, payment.ErrInvalidSignature):
			response.Forbidden(c, "callback signature verification failed")
		case errors.Is(err, repository.ErrDepositNotFound):
			response.NotFound(c, response.CodeNotFound, "no deposit for transaction")
		default:
			response.InternalError(c)
		}
		return
	}
	response.Success(c, deposit)
}

// pagination parses limit/offset query params with bounded defaults.
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
