package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/middleware"
)

// dealHandler receives the deals the CRM pushes to the ledger.
type dealHandler struct {
	dealService portssvc.DealSvcFacade
}

func registerDealRoutes(rg *gin.RouterGroup, dealService portssvc.DealSvcFacade) {
	h := &dealHandler{dealService: dealService}

	rg.POST("/deals", h.registerDeal)
	rg.GET("/deals/:dealID", h.getDeal)
}

// registerDeal handles POST /deals.
func (h *dealHandler) registerDeal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RegisterDeal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("deal_id", req.DealID))
	deal, err := h.dealService.RegisterDeal(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to register deal")
		return
	}
	c.JSON(http.StatusCreated, dto.ToDealResponse(deal))
}

// getDeal handles GET /deals/:dealID.
func (h *dealHandler) getDeal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("deal_id", c.Param("dealID")))

	deal, err := h.dealService.GetDeal(c.Request.Context(), c.Param("dealID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve deal")
		return
	}
	c.JSON(http.StatusOK, dto.ToDealResponse(deal))
}
