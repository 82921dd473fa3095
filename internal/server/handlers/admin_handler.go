package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/middleware"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/service/billing"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/service/verification"
)

// AdminHandler exposes admin-only invoice operations.
type AdminHandler struct {
	billing  *billing.Service
	verifier *verification.Service
	logger   *zap.Logger
}

// NewAdminHandler constructs the admin HTTP handler adapter.
func NewAdminHandler(b *billing.Service, v *verification.Service, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{billing: b, verifier: v, logger: logger}
}

// ListAll pages invoices across all users, with optional user/status/date
// filters.
func (h *AdminHandler) ListAll(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	f := listFilter(c)
	f.UserID = c.Query("userId")

	invoices, total, err := h.billing.ListInvoices(c.Request.Context(), id, f)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"invoices":   invoices,
			"pagination": paginationOf(f, total),
		},
	})
}

// ListPending returns invoices awaiting an admin decision.
func (h *AdminHandler) ListPending(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	invoices, total, err := h.verifier.ListPending(c.Request.Context(), id, page, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"invoices":   invoices,
			"totalItems": total,
		},
	})
}

type verifyRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Notes    string `json:"notes"`
}

// Verify records the admin decision on a pending invoice.
func (h *AdminHandler) Verify(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	inv, err := h.verifier.Verify(c.Request.Context(), id, c.Param("invoiceId"), *req.Approved, req.Notes)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	message := "Invoice rejected successfully"
	if *req.Approved {
		message = "Invoice approved successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    gin.H{"invoice": inv},
	})
}
