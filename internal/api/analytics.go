package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentdesk/server/internal/intake"
	"rentdesk/server/internal/models"
)

// TrackEvent records a website interaction. Valid events are always
// accepted, even when they could not be stored.
func (h *Handler) TrackEvent(c *gin.Context) {
	var req analyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := h.leads.Track(c.Request.Context(), intake.AnalyticsInput{
		Type:     models.AnalyticsEventType(req.Type),
		Page:     req.Page,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Status(http.StatusAccepted)
}

// GetAnalyticsSummary returns the number of events per type, including
// types that were never recorded.
func (h *Handler) GetAnalyticsSummary(c *gin.Context) {
	counts, err := h.leads.AnalyticsSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	summary := map[models.AnalyticsEventType]int64{
		models.AnalyticsCalculatorSubmit:    0,
		models.AnalyticsContactFormSubmit:   0,
		models.AnalyticsWhatsAppClick:       0,
		models.AnalyticsPhoneClick:          0,
		models.AnalyticsPDFDownload:         0,
		models.AnalyticsNewsletterSubscribe: 0,
	}
	for _, count := range counts {
		summary[count.Type] = count.Count
	}
	c.JSON(http.StatusOK, summary)
}
