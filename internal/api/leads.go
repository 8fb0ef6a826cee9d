package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentdesk/server/internal/estimate"
	"rentdesk/server/internal/intake"
	"rentdesk/server/internal/models"
)

func (r estimateRequest) attributes() estimate.Attributes {
	furnished := r.Furnished.optionalBool()
	return estimate.ParseAttributes(r.CityZone, r.SizeSqm.String(), r.Bedrooms.String(), furnished != nil && *furnished)
}

func estimateBody(est estimate.RentEstimate) gin.H {
	return gin.H{
		"min_rent":              est.MinRent,
		"max_rent":              est.MaxRent,
		"estimated_days_to_let": est.EstimatedDaysToLet,
		"formatted":             est.String(),
	}
}

// Estimate computes a rent range without storing anything
func (h *Handler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, estimateBody(estimate.Calculate(req.attributes())))
}

// SubmitCalculator runs both calculator steps and stores the lead
func (h *Handler) SubmitCalculator(c *gin.Context) {
	var req calculatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	flow := intake.NewCalculatorFlow()
	est, err := flow.ProvideProperty(intake.PropertyDetails{
		Attributes:    req.Property.attributes(),
		Address:       req.Property.Address,
		City:          req.Property.City,
		PropertyType:  req.Property.PropertyType,
		AvailableFrom: req.Property.AvailableFrom,
		DesiredRent:   req.Property.DesiredRent.String(),
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	err = flow.ProvideContact(intake.ContactDetails{
		Name:       req.Contact.Name,
		Email:      req.Contact.Email,
		Phone:      req.Contact.Phone,
		Message:    req.Contact.Message,
		SourcePage: req.Contact.SourcePage,
		Consent:    req.Contact.Consent,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	result, err := h.leads.Submit(c.Request.Context(), flow)
	if err != nil {
		// The visitor still gets to see the estimate
		h.respondError(c, err, gin.H{"estimate": estimateBody(est), "saved": false})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"leadId":   result.LeadID,
		"estimate": estimateBody(result.Estimate),
		"saved":    result.Saved,
	})
}

// CreateLead stores a lead from any website form
func (h *Handler) CreateLead(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), intake.LeadInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		LeadType:      models.LeadType(req.LeadType),
		Source:        req.Source,
		SourcePage:    req.SourcePage,
		Message:       req.Message,
		Address:       req.Address,
		City:          req.City,
		PropertyType:  req.PropertyType,
		Size:          req.Size.optionalInt(),
		Bedrooms:      req.Bedrooms.optionalInt(),
		Furnished:     req.Furnished.optionalBool(),
		AvailableFrom: req.AvailableFrom,
		DesiredRent:   req.DesiredRent.String(),
		EstimatedRent: req.EstimatedRent,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "leadId": lead.ID})
}

func (h *Handler) ListLeads(c *gin.Context) {
	var filter models.LeadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.badRequest(c, err)
		return
	}

	leads, total, err := h.leads.ListLeads(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": total})
}

func (h *Handler) GetLead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	lead, err := h.leads.GetLead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// UpdateLead changes status and/or assignee of a lead
func (h *Handler) UpdateLead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	var actor *uuid.UUID
	if user := currentUser(c); user != nil {
		actorID := user.ID
		actor = &actorID
	}

	lead, err := h.leads.UpdateLead(c.Request.Context(), id, actor, intake.LeadUpdate{
		Status:       req.Status,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *Handler) AddLeadNote(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	var actor uuid.UUID
	if user := currentUser(c); user != nil {
		actor = user.ID
	}

	note, err := h.leads.AddNote(c.Request.Context(), id, actor, req.Content)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
