package dto

import (
	"time"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
)

// Pagination defaults for event listings
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 500
)

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Type      string  `json:"type" binding:"required"`
	Category  *string `json:"category"`
	Status    string  `json:"status"`
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   *string `json:"end_date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`

	LocationType    string `json:"location_type"`
	LocationName    string `json:"location_name" binding:"max=255"`
	LocationAddress string `json:"location_address"`

	TitleFr       string `json:"title_fr" binding:"max=255"`
	TitleEn       string `json:"title_en" binding:"max=255"`
	DescriptionFr string `json:"description_fr"`
	DescriptionEn string `json:"description_en"`

	PrivateNotes string `json:"private_notes"`
	ContactName  string `json:"contact_name" binding:"max=255"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`

	ManagerDev    bool `json:"manager_dev"`
	ManagerBureau bool `json:"manager_bureau"`
	ManagerMuseum bool `json:"manager_museum"`
	ManagerCom    bool `json:"manager_com"`

	Capacity *int  `json:"capacity"`
	IsActive *bool `json:"is_active"`

	// RelatedEventIDs are linked as outgoing "related" edges on creation
	RelatedEventIDs []string `json:"related_event_ids"`
}

// Validate validates the CreateEventRequest
func (r *CreateEventRequest) Validate() (bool, string) {
	if r.Type == "" {
		return false, "Event type is required"
	}
	if r.StartDate == "" {
		return false, "Start date is required"
	}
	return true, ""
}

// ToEvent parses the request into an unsaved event with defaults applied.
// Domain rules are checked separately by Event.Validate.
func (r *CreateEventRequest) ToEvent(op string) (*domain.Event, error) {
	startDate, err := domain.ParseDate(r.StartDate)
	if err != nil {
		return nil, domain.NewValidationError(op, "start_date", err.Error())
	}
	endDate, err := parseOptionalDate(op, "end_date", r.EndDate)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		Type:            domain.EventType(r.Type),
		Status:          domain.EventStatusDraft,
		StartDate:       startDate,
		EndDate:         endDate,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		LocationType:    domain.LocationTypeMuseum,
		LocationName:    r.LocationName,
		LocationAddress: r.LocationAddress,
		TitleFr:         r.TitleFr,
		TitleEn:         r.TitleEn,
		DescriptionFr:   r.DescriptionFr,
		DescriptionEn:   r.DescriptionEn,
		PrivateNotes:    r.PrivateNotes,
		ContactName:     r.ContactName,
		ContactEmail:    r.ContactEmail,
		ManagerDev:      r.ManagerDev,
		ManagerBureau:   r.ManagerBureau,
		ManagerMuseum:   r.ManagerMuseum,
		ManagerCom:      r.ManagerCom,
		Capacity:        r.Capacity,
		IsActive:        true,
	}
	if r.Category != nil {
		c := domain.EventCategory(*r.Category)
		event.Category = &c
	}
	if r.Status != "" {
		event.Status = domain.EventStatus(r.Status)
	}
	if r.LocationType != "" {
		event.LocationType = domain.LocationType(r.LocationType)
	}
	if r.IsActive != nil {
		event.IsActive = *r.IsActive
	}
	return event, nil
}

// UpdateEventRequest is a partial update. Absent fields are left untouched,
// explicit nulls clear nullable fields.
type UpdateEventRequest struct {
	Type      Optional[string] `json:"type"`
	Category  Optional[string] `json:"category"`
	Status    Optional[string] `json:"status"`
	StartDate Optional[string] `json:"start_date"`
	EndDate   Optional[string] `json:"end_date"`
	StartTime Optional[string] `json:"start_time"`
	EndTime   Optional[string] `json:"end_time"`

	LocationType    Optional[string] `json:"location_type"`
	LocationName    Optional[string] `json:"location_name"`
	LocationAddress Optional[string] `json:"location_address"`

	TitleFr       Optional[string] `json:"title_fr"`
	TitleEn       Optional[string] `json:"title_en"`
	DescriptionFr Optional[string] `json:"description_fr"`
	DescriptionEn Optional[string] `json:"description_en"`

	PrivateNotes Optional[string] `json:"private_notes"`
	ContactName  Optional[string] `json:"contact_name"`
	ContactEmail Optional[string] `json:"contact_email"`

	ManagerDev    Optional[bool] `json:"manager_dev"`
	ManagerBureau Optional[bool] `json:"manager_bureau"`
	ManagerMuseum Optional[bool] `json:"manager_museum"`
	ManagerCom    Optional[bool] `json:"manager_com"`

	Capacity Optional[int]  `json:"capacity"`
	IsActive Optional[bool] `json:"is_active"`

	// RelatedEventIDs replaces the outgoing relation set when present
	RelatedEventIDs Optional[[]string] `json:"related_event_ids"`
}

// HasFieldChanges reports whether any event column is part of the patch
func (r *UpdateEventRequest) HasFieldChanges() bool {
	return r.Type.Set || r.Category.Set || r.Status.Set || r.StartDate.Set || r.EndDate.Set ||
		r.StartTime.Set || r.EndTime.Set || r.LocationType.Set || r.LocationName.Set ||
		r.LocationAddress.Set || r.TitleFr.Set || r.TitleEn.Set || r.DescriptionFr.Set ||
		r.DescriptionEn.Set || r.PrivateNotes.Set || r.ContactName.Set || r.ContactEmail.Set ||
		r.ManagerDev.Set || r.ManagerBureau.Set || r.ManagerMuseum.Set || r.ManagerCom.Set ||
		r.Capacity.Set || r.IsActive.Set
}

// IsEmpty reports a patch that changes nothing
func (r *UpdateEventRequest) IsEmpty() bool {
	return !r.HasFieldChanges() && !r.RelatedEventIDs.Set
}

// ApplyTo returns a copy of existing with the patch overlaid. The result is
// the effective record the domain rules must be checked against.
func (r *UpdateEventRequest) ApplyTo(op string, existing *domain.Event) (*domain.Event, error) {
	e := *existing
	e.RelatedEvents, e.ParentEvents = nil, nil

	if r.Type.Set {
		if r.Type.Null {
			return nil, domain.NewValidationError(op, "type", "cannot be null")
		}
		e.Type = domain.EventType(r.Type.Value)
	}
	if r.Category.Set {
		e.Category = nil
		if !r.Category.Null {
			c := domain.EventCategory(r.Category.Value)
			e.Category = &c
		}
	}
	if r.Status.Set {
		if r.Status.Null {
			return nil, domain.NewValidationError(op, "status", "cannot be null")
		}
		e.Status = domain.EventStatus(r.Status.Value)
	}
	if r.StartDate.Set {
		if r.StartDate.Null {
			return nil, domain.NewValidationError(op, "start_date", "cannot be null")
		}
		d, err := domain.ParseDate(r.StartDate.Value)
		if err != nil {
			return nil, domain.NewValidationError(op, "start_date", err.Error())
		}
		e.StartDate = d
	}
	if r.EndDate.Set {
		d, err := parseOptionalDate(op, "end_date", r.EndDate.Ptr())
		if err != nil {
			return nil, err
		}
		e.EndDate = d
	}
	if r.StartTime.Set {
		e.StartTime = r.StartTime.Ptr()
	}
	if r.EndTime.Set {
		e.EndTime = r.EndTime.Ptr()
	}
	if r.LocationType.Set {
		if r.LocationType.Null {
			return nil, domain.NewValidationError(op, "location_type", "cannot be null")
		}
		e.LocationType = domain.LocationType(r.LocationType.Value)
	}

	applyString(&e.LocationName, r.LocationName)
	applyString(&e.LocationAddress, r.LocationAddress)
	applyString(&e.TitleFr, r.TitleFr)
	applyString(&e.TitleEn, r.TitleEn)
	applyString(&e.DescriptionFr, r.DescriptionFr)
	applyString(&e.DescriptionEn, r.DescriptionEn)
	applyString(&e.PrivateNotes, r.PrivateNotes)
	applyString(&e.ContactName, r.ContactName)
	applyString(&e.ContactEmail, r.ContactEmail)

	for _, f := range []struct {
		name  string
		dst   *bool
		patch Optional[bool]
	}{
		{"manager_dev", &e.ManagerDev, r.ManagerDev},
		{"manager_bureau", &e.ManagerBureau, r.ManagerBureau},
		{"manager_museum", &e.ManagerMuseum, r.ManagerMuseum},
		{"manager_com", &e.ManagerCom, r.ManagerCom},
		{"is_active", &e.IsActive, r.IsActive},
	} {
		if !f.patch.Set {
			continue
		}
		if f.patch.Null {
			return nil, domain.NewValidationError(op, f.name, "cannot be null")
		}
		*f.dst = f.patch.Value
	}

	if r.Capacity.Set {
		e.Capacity = r.Capacity.Ptr()
	}

	return &e, nil
}

// RelatedIDs returns the replacement relation set; null means empty
func (r *UpdateEventRequest) RelatedIDs() []string {
	if !r.RelatedEventIDs.HasValue() {
		return []string{}
	}
	return r.RelatedEventIDs.Value
}

func applyString(dst *string, patch Optional[string]) {
	if !patch.Set {
		return
	}
	if patch.Null {
		*dst = ""
		return
	}
	*dst = patch.Value
}

func parseOptionalDate(op, field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, domain.NewValidationError(op, field, err.Error())
	}
	return &d, nil
}

// LinkEventsRequest links child events to a parent
type LinkEventsRequest struct {
	ChildEventIDs []string `json:"child_event_ids" binding:"required"`
}

// EventListFilter represents filters for listing events
type EventListFilter struct {
	Type             string `form:"type"`
	Category         string `form:"category"`
	Status           string `form:"status"`
	StartDate        string `form:"start_date"`
	EndDate          string `form:"end_date"`
	Date             string `form:"date"`
	LocationType     string `form:"location_type"`
	IsActive         *bool  `form:"is_active"`
	IncludeRelations bool   `form:"include_relations"`
	Page             int    `form:"page"`
	Limit            int    `form:"limit"`
}

// SetDefaults sets default values for pagination
func (f *EventListFilter) SetDefaults() {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

// EventPage is one page of a filtered event listing
type EventPage struct {
	Events     []*domain.Event
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// NewEventPage computes the page count for total matches
func NewEventPage(events []*domain.Event, total, page, limit int) *EventPage {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return &EventPage{
		Events:     events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Category  *string `json:"category"`
	Status    string  `json:"status"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`

	LocationType    string `json:"location_type"`
	LocationName    string `json:"location_name"`
	LocationAddress string `json:"location_address"`

	Title         string `json:"title"`
	Description   string `json:"description"`
	TitleFr       string `json:"title_fr"`
	TitleEn       string `json:"title_en"`
	DescriptionFr string `json:"description_fr"`
	DescriptionEn string `json:"description_en"`

	PrivateNotes *string `json:"private_notes,omitempty"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`

	ManagerDev    bool `json:"manager_dev"`
	ManagerBureau bool `json:"manager_bureau"`
	ManagerMuseum bool `json:"manager_museum"`
	ManagerCom    bool `json:"manager_com"`

	Capacity *int `json:"capacity"`
	IsActive bool `json:"is_active"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	RelatedEvents []*EventResponse `json:"related_events,omitempty"`
	ParentEvents  []*EventResponse `json:"parent_events,omitempty"`
}

// ResponseOptions control localisation and private field exposure
type ResponseOptions struct {
	Lang           string
	IncludePrivate bool
}

// ToEventResponse converts a domain event, including enriched neighbours
func ToEventResponse(e *domain.Event, opts ResponseOptions) *EventResponse {
	resp := toEventResponse(e, opts)
	for _, rel := range e.RelatedEvents {
		resp.RelatedEvents = append(resp.RelatedEvents, toEventResponse(rel, opts))
	}
	for _, parent := range e.ParentEvents {
		resp.ParentEvents = append(resp.ParentEvents, toEventResponse(parent, opts))
	}
	return resp
}

// ToEventResponses converts a list of domain events
func ToEventResponses(events []*domain.Event, opts ResponseOptions) []*EventResponse {
	out := make([]*EventResponse, len(events))
	for i, e := range events {
		out[i] = ToEventResponse(e, opts)
	}
	return out
}

func toEventResponse(e *domain.Event, opts ResponseOptions) *EventResponse {
	resp := &EventResponse{
		ID:              e.ID,
		Type:            string(e.Type),
		Status:          string(e.Status),
		StartDate:       domain.FormatDate(e.StartDate),
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		LocationType:    string(e.LocationType),
		LocationName:    e.LocationName,
		LocationAddress: e.LocationAddress,
		Title:           Localized(e.TitleFr, e.TitleEn, opts.Lang),
		Description:     Localized(e.DescriptionFr, e.DescriptionEn, opts.Lang),
		TitleFr:         e.TitleFr,
		TitleEn:         e.TitleEn,
		DescriptionFr:   e.DescriptionFr,
		DescriptionEn:   e.DescriptionEn,
		ManagerDev:      e.ManagerDev,
		ManagerBureau:   e.ManagerBureau,
		ManagerMuseum:   e.ManagerMuseum,
		ManagerCom:      e.ManagerCom,
		Capacity:        e.Capacity,
		IsActive:        e.IsActive,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
	if e.Category != nil {
		c := string(*e.Category)
		resp.Category = &c
	}
	if e.EndDate != nil {
		d := domain.FormatDate(*e.EndDate)
		resp.EndDate = &d
	}
	if opts.IncludePrivate {
		notes, name, email := e.PrivateNotes, e.ContactName, e.ContactEmail
		resp.PrivateNotes = &notes
		resp.ContactName = &name
		resp.ContactEmail = &email
	}
	return resp
}

// RelationsResponse lists the neighbours of one event
type RelationsResponse struct {
	EventID       string           `json:"event_id"`
	RelatedEvents []*EventResponse `json:"related_events"`
	ParentEvents  []*EventResponse `json:"parent_events"`
}

// ToRelationsResponse converts an enriched event into its neighbour lists
func ToRelationsResponse(e *domain.Event, opts ResponseOptions) *RelationsResponse {
	resp := &RelationsResponse{
		EventID:       e.ID,
		RelatedEvents: make([]*EventResponse, 0, len(e.RelatedEvents)),
		ParentEvents:  make([]*EventResponse, 0, len(e.ParentEvents)),
	}
	for _, rel := range e.RelatedEvents {
		resp.RelatedEvents = append(resp.RelatedEvents, toEventResponse(rel, opts))
	}
	for _, parent := range e.ParentEvents {
		resp.ParentEvents = append(resp.ParentEvents, toEventResponse(parent, opts))
	}
	return resp
}
