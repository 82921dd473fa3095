package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/render"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/middleware"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/service/billing"
)

// InvoiceHandler exposes the cashier-facing billing operations.
type InvoiceHandler struct {
	svc      *billing.Service
	renderer *render.Renderer
	logger   *zap.Logger
}

// NewInvoiceHandler constructs the HTTP handler adapter.
func NewInvoiceHandler(svc *billing.Service, renderer *render.Renderer, logger *zap.Logger) *InvoiceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceHandler{svc: svc, renderer: renderer, logger: logger}
}

// CreateOrGet returns the caller's live draft or creates a new one.
func (h *InvoiceHandler) CreateOrGet(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	inv, remaining, created, err := h.svc.GetOrCreateDraft(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	message := "Active invoice found"
	if created {
		status = http.StatusCreated
		message = "New invoice created"
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"invoice":       inv,
			"timeRemaining": remaining.Milliseconds(),
		},
	})
}

type addItemRequest struct {
	ProductID    string              `json:"productId" binding:"required"`
	Quantity     float64             `json:"quantity" binding:"required,gt=0"`
	Discount     float64             `json:"discount"`
	DiscountType models.DiscountType `json:"discountType"`
}

// AddItem puts a product line on the draft.
func (h *InvoiceHandler) AddItem(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add-item payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	inv, item, err := h.svc.AddItem(c.Request.Context(), id, c.Param("invoiceId"),
		req.ProductID, req.Quantity, req.Discount, req.DiscountType)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item added to invoice successfully",
		"data": gin.H{
			"invoice":   inv,
			"addedItem": item,
		},
	})
}

// RemoveItem takes a line off the draft and restores its stock.
func (h *InvoiceHandler) RemoveItem(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	inv, err := h.svc.RemoveItem(c.Request.Context(), id, c.Param("invoiceId"), c.Param("itemId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item removed from invoice successfully",
		"data":    gin.H{"invoice": inv},
	})
}

type completeRequest struct {
	CustomerName    string               `json:"customerName"`
	CustomerPhone   string               `json:"customerPhone"`
	CustomerEmail   string               `json:"customerEmail"`
	CustomerAddress string               `json:"customerAddress"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	Notes           string               `json:"notes"`
}

// Complete submits the draft for admin verification.
func (h *InvoiceHandler) Complete(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid complete payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	inv, err := h.svc.Complete(c.Request.Context(), id, c.Param("invoiceId"), billing.CompleteRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Invoice completed successfully. Awaiting admin verification.",
		"data":    gin.H{"invoice": inv},
	})
}

// List pages the caller's invoices. Verified and completed invoices are
// hidden unless a status filter or includeCompleted is supplied.
func (h *InvoiceHandler) List(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	f := listFilter(c)
	if f.Status == "" && c.Query("includeCompleted") != "true" {
		f.HideVerified = true
	}

	invoices, total, err := h.svc.ListInvoices(c.Request.Context(), id, f)
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

// PDF streams the printable invoice document.
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	invoiceID := c.Param("invoiceId")

	// Ownership check before the print is recorded.
	if _, err := h.svc.GetInvoice(c.Request.Context(), id, invoiceID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	inv, err := h.renderer.RenderInvoice(c.Request.Context(), invoiceID, &buf)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	disposition := "attachment"
	if c.Query("inline") == "true" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, render.FileName(inv)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// listFilter builds the shared listing filter from query parameters.
func listFilter(c *gin.Context) repository.InvoiceFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	f := repository.InvoiceFilter{
		Status: models.InvoiceStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
	if start, err := time.Parse("2006-01-02", c.Query("startDate")); err == nil {
		if end, err := time.Parse("2006-01-02", c.Query("endDate")); err == nil {
			f.StartDate = start
			f.EndDate = end.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return f
}

func paginationOf(f repository.InvoiceFilter, total int64) gin.H {
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return gin.H{
		"currentPage":  page,
		"totalPages":   totalPages,
		"totalItems":   total,
		"itemsPerPage": limit,
	}
}
