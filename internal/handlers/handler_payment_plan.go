package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/middleware"
)

// paymentPlanHandler handles HTTP requests related to payment plans.
type paymentPlanHandler struct {
	planService portssvc.PaymentPlanSvcFacade
	now         func() time.Time
}

func newPaymentPlanHandler(ps portssvc.PaymentPlanSvcFacade) *paymentPlanHandler {
	return &paymentPlanHandler{planService: ps, now: time.Now}
}

// registerPaymentPlanRoutes registers plan routes and the deal-scoped plan lookup.
func registerPaymentPlanRoutes(rg *gin.RouterGroup, planService portssvc.PaymentPlanSvcFacade) {
	h := newPaymentPlanHandler(planService)

	plans := rg.Group("/payment-plans")
	{
		plans.POST("", h.createPaymentPlan)
		plans.GET("/:id", h.getPaymentPlan)
		plans.GET("/:id/summary", h.getPlanSummary)
		plans.PUT("/:id", h.updatePaymentPlan)
		plans.PATCH("/:id/installments/:installmentID", h.updateInstallment)
		plans.POST("/:id/supersede", h.supersedePlan)
	}
	rg.GET("/deals/:dealID/payment-plan", h.getPaymentPlanByDeal)
}

// createPaymentPlan handles POST /payment-plans.
func (h *paymentPlanHandler) createPaymentPlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePaymentPlan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("deal_id", req.DealID))
	logger.Info("Received request to create payment plan", slog.Int("installment_count", len(req.Installments)))

	plan, err := h.planService.CreatePaymentPlan(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create payment plan")
		return
	}

	logger.Info("Payment plan created", slog.String("plan_id", plan.PlanID))
	c.JSON(http.StatusCreated, dto.ToPaymentPlanResponse(plan, h.now()))
}

// getPaymentPlan handles GET /payment-plans/:id.
func (h *paymentPlanHandler) getPaymentPlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("plan_id", c.Param("id")))

	plan, err := h.planService.GetPaymentPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve payment plan")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentPlanResponse(plan, h.now()))
}

// getPaymentPlanByDeal handles GET /deals/:dealID/payment-plan.
func (h *paymentPlanHandler) getPaymentPlanByDeal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("deal_id", c.Param("dealID")))

	plan, err := h.planService.GetPaymentPlanByDeal(c.Request.Context(), c.Param("dealID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve payment plan")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentPlanResponse(plan, h.now()))
}

// getPlanSummary handles GET /payment-plans/:id/summary.
func (h *paymentPlanHandler) getPlanSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("plan_id", c.Param("id")))

	summary, err := h.planService.SummarizePlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to summarize payment plan")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// updatePaymentPlan handles PUT /payment-plans/:id. Plans are immutable, so
// an existing plan always answers 409.
func (h *paymentPlanHandler) updatePaymentPlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("plan_id", c.Param("id")))
	var req dto.UpdatePaymentPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdatePaymentPlan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	plan, err := h.planService.UpdatePaymentPlan(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update payment plan")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentPlanResponse(plan, h.now()))
}

// updateInstallment handles PATCH /payment-plans/:id/installments/:installmentID.
func (h *paymentPlanHandler) updateInstallment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(
		slog.String("plan_id", c.Param("id")),
		slog.String("installment_id", c.Param("installmentID")),
	)
	var req dto.UpdateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateInstallment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	inst, err := h.planService.UpdateInstallment(c.Request.Context(), c.Param("id"), c.Param("installmentID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update installment")
		return
	}
	logger.Info("Installment updated")
	c.JSON(http.StatusOK, dto.ToInstallmentResponse(*inst, h.now()))
}

// supersedePlan handles POST /payment-plans/:id/supersede.
func (h *paymentPlanHandler) supersedePlan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("plan_id", c.Param("id")))
	var req dto.CreatePaymentPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SupersedePlan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	plan, err := h.planService.SupersedePlan(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to supersede payment plan")
		return
	}
	logger.Info("Payment plan superseded", slog.String("new_plan_id", plan.PlanID))
	c.JSON(http.StatusCreated, dto.ToPaymentPlanResponse(plan, h.now()))
}
