// Package intake turns form submissions into stored leads and runs the admin
// lead workflow.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"rentdesk/server/internal/database"
	"rentdesk/server/internal/estimate"
	"rentdesk/server/internal/models"
)

// Store is the persistence the intake service needs
type Store interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	ListLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int64, error)
	UpdateLead(ctx context.Context, id uuid.UUID, apply func(lead *models.Lead) ([]models.LeadEvent, error)) (*models.Lead, error)
	AddNote(ctx context.Context, note *models.LeadNote) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error
	CountAnalyticsByType(ctx context.Context) ([]models.AnalyticsCount, error)
}

// Dispatcher queues a best-effort notification about a new lead
type Dispatcher interface {
	Dispatch(lead models.Lead)
}

type Service struct {
	store      Store
	dispatcher Dispatcher
	logger     *logrus.Logger
}

func NewService(store Store, dispatcher Dispatcher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// LeadInput is a lead as submitted by any website form
type LeadInput struct {
	Name          string
	Email         string
	Phone         string
	LeadType      models.LeadType
	Source        string
	SourcePage    string
	Message       string
	Address       string
	City          string
	PropertyType  string
	Size          *int
	Bedrooms      *int
	Furnished     *bool
	AvailableFrom string
	DesiredRent   string
	EstimatedRent string
}

// Result of a calculator submission. Saved is false when the estimate was
// computed but the lead could not be stored.
type Result struct {
	LeadID   uuid.UUID             `json:"leadId"`
	Estimate estimate.RentEstimate `json:"estimate"`
	Saved    bool                  `json:"saved"`
}

func (in *LeadInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Source = strings.TrimSpace(in.Source)
	in.LeadType = models.LeadType(strings.ToUpper(strings.TrimSpace(string(in.LeadType))))
}

func (in *LeadInput) validate() error {
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if in.Email == "" {
		return invalid("email", "is required")
	}
	if !strings.Contains(in.Email, "@") {
		return invalid("email", "is not an e-mail address")
	}
	if in.LeadType == "" {
		return invalid("leadType", "is required")
	}
	if !in.LeadType.Valid() {
		return invalid("leadType", "must be TENANT, LANDLORD or GENERAL")
	}
	if in.Source == "" {
		return invalid("source", "is required")
	}
	return nil
}

// CreateLead stores a lead from a generic website form
func (s *Service) CreateLead(ctx context.Context, in LeadInput) (*models.Lead, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	analyticsType := models.AnalyticsContactFormSubmit
	if in.Source == models.SourceCalculator {
		analyticsType = models.AnalyticsCalculatorSubmit
	}
	return s.createLead(ctx, in, analyticsType)
}

// Submit stores the lead of a completed calculator flow
func (s *Service) Submit(ctx context.Context, flow *CalculatorFlow) (Result, error) {
	if flow.Step() != StepReadyToSubmit {
		return Result{}, ErrWrongStep
	}
	result := Result{Estimate: flow.Estimate()}

	if !flow.contact.Consent {
		return result, invalid("consent", "must be given")
	}

	attrs := flow.property.Attributes
	size := attrs.SizeSqm
	if size <= 0 {
		size = estimate.DefaultSizeSqm
	}
	bedrooms := attrs.Bedrooms
	if bedrooms <= 0 {
		bedrooms = estimate.DefaultBedrooms
	}
	furnished := attrs.Furnished

	in := LeadInput{
		Name:          flow.contact.Name,
		Email:         flow.contact.Email,
		Phone:         flow.contact.Phone,
		LeadType:      models.LeadTypeLandlord,
		Source:        models.SourceCalculator,
		SourcePage:    flow.contact.SourcePage,
		Message:       flow.contact.Message,
		Address:       flow.property.Address,
		City:          flow.property.City,
		PropertyType:  flow.property.PropertyType,
		Size:          &size,
		Bedrooms:      &bedrooms,
		Furnished:     &furnished,
		AvailableFrom: flow.property.AvailableFrom,
		DesiredRent:   flow.property.DesiredRent,
		EstimatedRent: result.Estimate.String(),
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return result, err
	}

	lead, err := s.createLead(ctx, in, models.AnalyticsCalculatorSubmit)
	if err != nil {
		return result, err
	}

	result.LeadID = lead.ID
	result.Saved = true
	return result, nil
}

// createLead writes the lead and its created event, queues the notification
// and counts the submission, in that order.
func (s *Service) createLead(ctx context.Context, in LeadInput, analyticsType models.AnalyticsEventType) (*models.Lead, error) {
	lead := &models.Lead{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		LeadType:      in.LeadType,
		Source:        in.Source,
		SourcePage:    in.SourcePage,
		Message:       in.Message,
		Status:        models.LeadStatusNew,
		Address:       in.Address,
		City:          in.City,
		PropertyType:  in.PropertyType,
		Size:          in.Size,
		Bedrooms:      in.Bedrooms,
		Furnished:     in.Furnished,
		AvailableFrom: in.AvailableFrom,
		DesiredRent:   in.DesiredRent,
		EstimatedRent: in.EstimatedRent,
	}

	if err := s.store.CreateLead(ctx, lead); err != nil {
		s.logger.WithError(err).WithField("source", in.Source).Error("Failed to save lead")
		return nil, &PersistenceError{Op: "save lead", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"lead_id":   lead.ID,
		"lead_type": lead.LeadType,
		"source":    lead.Source,
	}).Info("Lead created")

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(*lead)
	}

	s.recordAnalytics(ctx, &models.AnalyticsEvent{Type: analyticsType, Page: in.SourcePage})
	return lead, nil
}

// LeadUpdate is a partial admin update. Nil fields are left alone; an empty
// AssignedToID removes the assignee.
type LeadUpdate struct {
	Status       *string
	AssignedToID *string
}

// UpdateLead changes status and assignee. Any status may be set from any
// other; every changed field appends one event.
func (s *Service) UpdateLead(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, update LeadUpdate) (*models.Lead, error) {
	var status models.LeadStatus
	if update.Status != nil {
		status = models.LeadStatus(strings.ToUpper(strings.TrimSpace(*update.Status)))
		if !status.Valid() {
			return nil, invalid("status", "must be one of NEW, CONTACTED, IN_PROGRESS, WON, LOST")
		}
	}

	var assignee *uuid.UUID
	if update.AssignedToID != nil && strings.TrimSpace(*update.AssignedToID) != "" {
		userID, err := uuid.Parse(strings.TrimSpace(*update.AssignedToID))
		if err != nil {
			return nil, invalid("assignedToId", "is not a valid id")
		}
		if _, err := s.store.GetUserByID(ctx, userID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, invalid("assignedToId", "unknown user")
			}
			return nil, &PersistenceError{Op: "look up user", Err: err}
		}
		assignee = &userID
	}

	lead, err := s.store.UpdateLead(ctx, id, func(lead *models.Lead) ([]models.LeadEvent, error) {
		var events []models.LeadEvent

		if update.Status != nil && lead.Status != status {
			events = append(events, models.LeadEvent{
				Type:      models.LeadEventStatusChange,
				FromValue: string(lead.Status),
				ToValue:   string(status),
				ActorID:   actorID,
			})
			lead.Status = status
		}

		if update.AssignedToID != nil && !sameID(lead.AssignedToID, assignee) {
			events = append(events, models.LeadEvent{
				Type:      models.LeadEventAssigned,
				FromValue: idString(lead.AssignedToID),
				ToValue:   idString(assignee),
				ActorID:   actorID,
			})
			lead.AssignedToID = assignee
		}

		return events, nil
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "update lead", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"status":  lead.Status,
	}).Info("Lead updated")
	return lead, nil
}

// AddNote attaches a note written by actorID to a lead
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, actorID uuid.UUID, content string) (*models.LeadNote, error) {
	if actorID == uuid.Nil {
		return nil, invalid("author", "is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "is required")
	}

	note := &models.LeadNote{
		LeadID:   id,
		AuthorID: actorID,
		Content:  content,
	}
	if err := s.store.AddNote(ctx, note); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "save note", Err: err}
	}
	return note, nil
}

func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "load lead", Err: err}
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int64, error) {
	filter.Status = models.LeadStatus(strings.ToUpper(strings.TrimSpace(string(filter.Status))))
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, invalid("status", "must be one of NEW, CONTACTED, IN_PROGRESS, WON, LOST")
	}
	filter.LeadType = models.LeadType(strings.ToUpper(strings.TrimSpace(string(filter.LeadType))))
	if filter.LeadType != "" && !filter.LeadType.Valid() {
		return nil, 0, invalid("lead_type", "must be one of TENANT, LANDLORD, GENERAL")
	}

	leads, total, err := s.store.ListLeads(ctx, filter)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list leads", Err: err}
	}
	return leads, total, nil
}

// AnalyticsInput is a tracked website interaction
type AnalyticsInput struct {
	Type     models.AnalyticsEventType
	Page     string
	Metadata json.RawMessage
}

// Track records an analytics event. Only invalid input is reported; a failed
// write is logged and dropped.
func (s *Service) Track(ctx context.Context, in AnalyticsInput) error {
	if !in.Type.Valid() {
		return invalid("type", "unknown event type")
	}
	event := &models.AnalyticsEvent{Type: in.Type, Page: in.Page}
	if len(in.Metadata) > 0 && string(in.Metadata) != "null" {
		if !json.Valid(in.Metadata) {
			return invalid("metadata", "is not valid JSON")
		}
		event.Metadata = datatypes.JSON(in.Metadata)
	}
	s.recordAnalytics(ctx, event)
	return nil
}

// AnalyticsSummary returns the number of recorded events per type
func (s *Service) AnalyticsSummary(ctx context.Context) ([]models.AnalyticsCount, error) {
	counts, err := s.store.CountAnalyticsByType(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "count analytics events", Err: err}
	}
	return counts, nil
}

func (s *Service) recordAnalytics(ctx context.Context, event *models.AnalyticsEvent) {
	if err := s.store.CreateAnalyticsEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithField("type", event.Type).Warn("Failed to record analytics event")
	}
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
