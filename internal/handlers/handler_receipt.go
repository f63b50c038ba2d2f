package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/middleware"
)

// receiptHandler handles HTTP requests related to receipts.
type receiptHandler struct {
	receiptService portssvc.ReceiptSvcFacade
}

func newReceiptHandler(rs portssvc.ReceiptSvcFacade) *receiptHandler {
	return &receiptHandler{receiptService: rs}
}

// registerReceiptRoutes registers receipt routes and the deal-scoped listing.
func registerReceiptRoutes(rg *gin.RouterGroup, receiptService portssvc.ReceiptSvcFacade) {
	h := newReceiptHandler(receiptService)

	receipts := rg.Group("/receipts")
	{
		receipts.POST("", h.createReceipt)
		receipts.GET("/:id", h.getReceipt)
		receipts.DELETE("/:id", h.deleteReceipt)
	}
	rg.GET("/deals/:dealID/receipts", h.listReceiptsByDeal)
}

// createReceipt handles POST /receipts.
func (h *receiptHandler) createReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateReceipt", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("deal_id", req.DealID))
	logger.Info("Received request to record receipt", slog.String("amount", req.Amount.String()), slog.String("method", string(req.Method)))

	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to record receipt")
		return
	}

	logger.Info("Receipt recorded", slog.String("receipt_id", receipt.ReceiptID), slog.String("reference_code", receipt.ReferenceCode))
	c.JSON(http.StatusCreated, dto.ToReceiptResponse(receipt))
}

// getReceipt handles GET /receipts/:id.
func (h *receiptHandler) getReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("receipt_id", c.Param("id")))

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve receipt")
		return
	}
	c.JSON(http.StatusOK, dto.ToReceiptResponse(receipt))
}

// listReceiptsByDeal handles GET /deals/:dealID/receipts.
func (h *receiptHandler) listReceiptsByDeal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("deal_id", c.Param("dealID")))

	var params dto.ListReceiptsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListReceipts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid query parameters", err))
		return
	}

	resp, err := h.receiptService.ListReceiptsByDeal(c.Request.Context(), c.Param("dealID"), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list receipts")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// deleteReceipt handles DELETE /receipts/:id.
func (h *receiptHandler) deleteReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("receipt_id", c.Param("id")))
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	if err := h.receiptService.DeleteReceipt(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, logger, err, "Failed to delete receipt")
		return
	}
	logger.Info("Receipt deleted")
	c.Status(http.StatusNoContent)
}
