package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/middleware"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

// registerJournalRoutes registers routes related to journal entries.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.postJournalEntry)
		entries.GET("/:id", h.getJournalEntry)
		entries.POST("/:id/reverse", h.reverseJournalEntry)
		entries.POST("/:id/void", h.voidJournalEntry)
	}
}

// postJournalEntry handles POST /journal-entries.
func (h *journalHandler) postJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostJournalEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, bindingErrorBody("Invalid request format", err))
		return
	}
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	logger.Info("Received request to post journal entry", slog.Int("line_count", len(req.Lines)))

	entry, err := h.journalService.PostJournalEntry(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post journal entry")
		return
	}

	logger.Info("Journal entry posted", slog.String("entry_id", entry.EntryID), slog.String("reference_code", entry.ReferenceCode))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(entry))
}

// getJournalEntry handles GET /journal-entries/:id.
func (h *journalHandler) getJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))

	entry, err := h.journalService.GetJournalEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalResponse(entry))
}

// reverseJournalEntry handles POST /journal-entries/:id/reverse.
func (h *journalHandler) reverseJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	reversal, err := h.journalService.ReverseJournalEntry(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse journal entry")
		return
	}

	logger.Info("Journal entry reversed", slog.String("reversal_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(reversal))
}

// voidJournalEntry handles POST /journal-entries/:id/void.
func (h *journalHandler) voidJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))
	userID, ok := requireActor(c, logger)
	if !ok {
		return
	}

	if err := h.journalService.VoidJournalEntry(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, logger, err, "Failed to void journal entry")
		return
	}
	logger.Info("Journal entry voided")
	c.Status(http.StatusNoContent)
}
