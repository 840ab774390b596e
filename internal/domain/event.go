package domain

import (
	"time"
)

// EventType represents who runs an event
type EventType string

const (
	EventTypeMuseum      EventType = "museum"
	EventTypeAssociation EventType = "association"
	EventTypeExternal    EventType = "external"
)

// AllEventTypes lists every event type in a stable order
var AllEventTypes = []EventType{EventTypeMuseum, EventTypeAssociation, EventTypeExternal}

func (t EventType) Valid() bool {
	switch t {
	case EventTypeMuseum, EventTypeAssociation, EventTypeExternal:
		return true
	}
	return false
}

// EventCategory classifies museum events
type EventCategory string

const (
	EventCategoryLive       EventCategory = "live"
	EventCategoryMediation  EventCategory = "mediation"
	EventCategoryWorkshop   EventCategory = "workshop"
	EventCategoryConference EventCategory = "conference"
	EventCategoryExhibition EventCategory = "exhibition"
	EventCategoryOther      EventCategory = "other"
)

func (c EventCategory) Valid() bool {
	switch c {
	case EventCategoryLive, EventCategoryMediation, EventCategoryWorkshop,
		EventCategoryConference, EventCategoryExhibition, EventCategoryOther:
		return true
	}
	return false
}

// EventStatus is the visibility tier of an event
type EventStatus string

const (
	EventStatusDraft   EventStatus = "draft"
	EventStatusPrivate EventStatus = "private"
	EventStatusMember  EventStatus = "member"
	EventStatusPublic  EventStatus = "public"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPrivate, EventStatusMember, EventStatusPublic:
		return true
	}
	return false
}

// LocationType tells whether an event happens on site
type LocationType string

const (
	LocationTypeMuseum   LocationType = "museum"
	LocationTypeExternal LocationType = "external"
)

func (l LocationType) Valid() bool {
	return l == LocationTypeMuseum || l == LocationTypeExternal
}

// RelationType is the kind of a directed event-to-event edge
type RelationType string

const (
	RelationTypeRelated  RelationType = "related"
	RelationTypeSubEvent RelationType = "sub_event"
)

func (r RelationType) Valid() bool {
	return r == RelationTypeRelated || r == RelationTypeSubEvent
}

// Event represents a schedulable activity of the venue
type Event struct {
	ID       string         `json:"id"`
	Type     EventType      `json:"type"`
	Category *EventCategory `json:"category"`
	Status   EventStatus    `json:"status"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	StartTime *string    `json:"start_time"`
	EndTime   *string    `json:"end_time"`

	LocationType    LocationType `json:"location_type"`
	LocationName    string       `json:"location_name"`
	LocationAddress string       `json:"location_address"`

	TitleFr       string `json:"title_fr"`
	TitleEn       string `json:"title_en"`
	DescriptionFr string `json:"description_fr"`
	DescriptionEn string `json:"description_en"`

	// Admin-only fields
	PrivateNotes string `json:"private_notes"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`

	// Manager flags are independent, an event may have none or several
	ManagerDev    bool `json:"manager_dev"`
	ManagerBureau bool `json:"manager_bureau"`
	ManagerMuseum bool `json:"manager_museum"`
	ManagerCom    bool `json:"manager_com"`

	Capacity *int `json:"capacity"`
	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated by relation enrichment only
	RelatedEvents []*Event `json:"related_events,omitempty"`
	ParentEvents  []*Event `json:"parent_events,omitempty"`
}

// LastDate is the end date, or the start date for single-day events
func (e *Event) LastDate() time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.StartDate
}

// OccursOn reports whether the event spans day
func (e *Event) OccursOn(day time.Time) bool {
	return IntervalContains(e.StartDate, e.EndDate, day)
}

// Validate checks every field rule and the cross-field invariants:
// a museum event has a category, other types have none, and the end date is
// never before the start date
func (e *Event) Validate(op string) error {
	if !e.Type.Valid() {
		return NewValidationError(op, "type", "must be one of museum, association, external")
	}
	if !e.Status.Valid() {
		return NewValidationError(op, "status", "must be one of draft, private, member, public")
	}
	if e.Category != nil && !e.Category.Valid() {
		return NewValidationError(op, "category", "unknown category "+string(*e.Category))
	}
	if e.Type == EventTypeMuseum && e.Category == nil {
		return NewValidationError(op, "category", "is required for museum events")
	}
	if e.Type != EventTypeMuseum && e.Category != nil {
		return NewValidationError(op, "category", "is only allowed for museum events")
	}
	if e.StartDate.IsZero() {
		return NewValidationError(op, "start_date", "is required")
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		return NewValidationError(op, "end_date", "must be on or after start_date")
	}
	if err := ValidateTimeOfDay(e.StartTime); err != nil {
		return NewValidationError(op, "start_time", err.Error())
	}
	if err := ValidateTimeOfDay(e.EndTime); err != nil {
		return NewValidationError(op, "end_time", err.Error())
	}
	if e.LocationType != "" && !e.LocationType.Valid() {
		return NewValidationError(op, "location_type", "must be museum or external")
	}
	if e.Capacity != nil && *e.Capacity <= 0 {
		return NewValidationError(op, "capacity", "must be a positive integer")
	}
	return nil
}

// EventRelation is a directed edge between two events
type EventRelation struct {
	ParentEventID string       `json:"parent_event_id"`
	ChildEventID  string       `json:"child_event_id"`
	RelationType  RelationType `json:"relation_type"`
	CreatedAt     time.Time    `json:"created_at"`
}
