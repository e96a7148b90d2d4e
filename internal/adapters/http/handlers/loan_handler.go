package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/domain"
	"github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/internal/core/ports"
)

type LoanHandler struct {
	service ports.LoanService
	logger  *zap.Logger
}

func NewLoanHandler(service ports.LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{
		service: service,
		logger:  logger,
	}
}

// CreateLoan handles POST /api/v1/loans. A loan that persisted but whose
// event could not be published still comes back 201, with
// notificationPending set in the body.
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req domain.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateLoan(c.Request.Context(), req.UserID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, domain.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream service unavailable"})
		case errors.Is(err, domain.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "loan store unavailable"})
		default:
			h.logger.Error("Failed to create loan", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListLoans handles GET /api/v1/loans.
func (h *LoanHandler) ListLoans(c *gin.Context) {
	views, err := h.service.ListLoans(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "loan store unavailable"})
			return
		}
		h.logger.Error("Failed to list loans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": views})
}
