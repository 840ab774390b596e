package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
	"github.com/prohmpiriya/venue-calendar/pkg/middleware"
)

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	args := m.Called(ctx, req)
	if e := args.Get(0); e != nil {
		return e.(*domain.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventService) GetEventByID(ctx context.Context, id string, includeRelations bool) (*domain.Event, error) {
	args := m.Called(ctx, id, includeRelations)
	if e := args.Get(0); e != nil {
		return e.(*domain.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	args := m.Called(ctx, id, req)
	if e := args.Get(0); e != nil {
		return e.(*domain.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockEventQueryService is a mock implementation of EventQueryService
type MockEventQueryService struct {
	mock.Mock
}

func (m *MockEventQueryService) ListEvents(ctx context.Context, filter *dto.EventListFilter) (*dto.EventPage, error) {
	args := m.Called(ctx, filter)
	if p := args.Get(0); p != nil {
		return p.(*dto.EventPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventQueryService) Query(ctx context.Context, filter *repository.EventFilter, page, limit int, includeRelations bool) (*dto.EventPage, error) {
	args := m.Called(ctx, filter, page, limit, includeRelations)
	if p := args.Get(0); p != nil {
		return p.(*dto.EventPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func testEvent(id string, status domain.EventStatus) *domain.Event {
	live := domain.EventCategoryLive
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	start, _ := domain.ParseDate("2024-07-01")
	return &domain.Event{
		ID:           id,
		Type:         domain.EventTypeMuseum,
		Category:     &live,
		Status:       status,
		StartDate:    start,
		LocationType: domain.LocationTypeMuseum,
		TitleFr:      "Concert du soir",
		TitleEn:      "Evening concert",
		PrivateNotes: "VIP list at the desk",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// withRole simulates the JWT middleware
func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(middleware.ContextKeyUserID, "user-1")
			c.Set(middleware.ContextKeyRole, role)
		}
		c.Next()
	}
}

func setupEventRouter(h *EventHandler, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withRole(role))

	events := router.Group("/events")
	{
		events.GET("", h.List)
		events.GET("/:id", h.GetByID)
		events.POST("", h.Create)
		events.PATCH("/:id", h.Update)
		events.DELETE("/:id", h.Delete)
	}

	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Page  int `json:"page"`
		Total int `json:"total"`
	} `json:"meta"`
}

func decode(t *testing.T, body *bytes.Buffer) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

func TestEventHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		query      string
		wantStatus string
		wantCode   int
	}{
		{name: "anonymous gets the default visibility", role: "", query: "", wantStatus: "public,member", wantCode: http.StatusOK},
		{name: "anonymous keeps an allowed status", role: "", query: "?status=public", wantStatus: "public", wantCode: http.StatusOK},
		{name: "anonymous cannot list drafts", role: "", query: "?status=draft", wantCode: http.StatusForbidden},
		{name: "staff lists everything", role: RoleStaff, query: "", wantStatus: "", wantCode: http.StatusOK},
		{name: "admin lists drafts", role: RoleAdmin, query: "?status=draft", wantStatus: "draft", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := new(MockEventQueryService)
			page := dto.NewEventPage([]*domain.Event{testEvent("event-1", domain.EventStatusPublic)}, 1, 1, 50)
			query.On("ListEvents", mock.Anything, mock.MatchedBy(func(f *dto.EventListFilter) bool {
				return f.Status == tt.wantStatus
			})).Return(page, nil)

			router := setupEventRouter(NewEventHandler(new(MockEventService), query), tt.role)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/events"+tt.query, nil))

			assert.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
			if tt.wantCode == http.StatusOK {
				env := decode(t, resp.Body)
				require.NotNil(t, env.Meta)
				assert.Equal(t, 1, env.Meta.Total)
				query.AssertExpectations(t)
			} else {
				query.AssertNotCalled(t, "ListEvents", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestEventHandler_List_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "validation", err: domain.NewValidationError("event.list", "type", "unknown event type circus"), wantCode: http.StatusBadRequest},
		{name: "store down", err: domain.NewDependencyError("event.list", "postgres", errors.New("dial tcp")), wantCode: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := new(MockEventQueryService)
			query.On("ListEvents", mock.Anything, mock.Anything).Return(nil, tt.err)

			router := setupEventRouter(NewEventHandler(new(MockEventService), query), RoleStaff)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/events?type=circus", nil))

			assert.Equal(t, tt.wantCode, resp.Code)
			assert.False(t, decode(t, resp.Body).Success)
		})
	}
}

func TestEventHandler_GetByID(t *testing.T) {
	svc := new(MockEventService)
	svc.On("GetEventByID", mock.Anything, "public-1", true).Return(testEvent("public-1", domain.EventStatusPublic), nil)
	svc.On("GetEventByID", mock.Anything, "public-1", false).Return(testEvent("public-1", domain.EventStatusPublic), nil)
	svc.On("GetEventByID", mock.Anything, "draft-1", false).Return(testEvent("draft-1", domain.EventStatusDraft), nil)
	svc.On("GetEventByID", mock.Anything, "missing", false).Return(nil, domain.NewNotFoundError("event.get", "event", "missing"))

	tests := []struct {
		name     string
		role     string
		path     string
		wantCode int
		check    func(t *testing.T, data map[string]any)
	}{
		{
			name: "public event, english title", path: "/events/public-1?lang=en", wantCode: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				assert.Equal(t, "Evening concert", data["title"])
				assert.NotContains(t, data, "private_notes")
			},
		},
		{
			name: "accept-language falls back to french", path: "/events/public-1?include_relations=true", wantCode: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				assert.Equal(t, "Concert du soir", data["title"])
			},
		},
		{name: "draft hidden from anonymous", path: "/events/draft-1", wantCode: http.StatusNotFound},
		{
			name: "draft visible to staff with private fields", role: RoleStaff, path: "/events/draft-1", wantCode: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				assert.Equal(t, "VIP list at the desk", data["private_notes"])
			},
		},
		{name: "not found", path: "/events/missing", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupEventRouter(NewEventHandler(svc, new(MockEventQueryService)), tt.role)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
			if tt.check != nil {
				var data map[string]any
				require.NoError(t, json.Unmarshal(decode(t, resp.Body).Data, &data))
				tt.check(t, data)
			}
		})
	}
}

func TestEventHandler_Create(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
	}{
		{name: "valid request", body: `{"type":"museum","category":"live","start_date":"2024-07-01","title_fr":"Concert"}`, wantCode: http.StatusCreated},
		{name: "missing start date", body: `{"type":"museum"}`, wantCode: http.StatusBadRequest},
		{name: "malformed json", body: `{"type":`, wantCode: http.StatusBadRequest},
		{name: "domain rule", body: `{"type":"museum","start_date":"2024-07-01"}`, svcErr: domain.NewValidationError("event.create", "category", "is required for museum events"), wantCode: http.StatusBadRequest},
		{name: "related event missing", body: `{"type":"external","start_date":"2024-07-01","related_event_ids":["x"]}`, svcErr: domain.NewNotFoundError("event.create", "event", "x"), wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockEventService)
			if tt.svcErr != nil {
				svc.On("CreateEvent", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			} else {
				svc.On("CreateEvent", mock.Anything, mock.Anything).Return(testEvent("event-123", domain.EventStatusDraft), nil)
			}

			router := setupEventRouter(NewEventHandler(svc, new(MockEventQueryService)), RoleAdmin)
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			assert.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
		})
	}
}

func TestEventHandler_Update(t *testing.T) {
	svc := new(MockEventService)
	svc.On("UpdateEvent", mock.Anything, "event-1", mock.MatchedBy(func(r *dto.UpdateEventRequest) bool {
		return r.EndDate.Set && r.EndDate.Null && !r.TitleFr.Set
	})).Return(testEvent("event-1", domain.EventStatusPublic), nil)
	svc.On("UpdateEvent", mock.Anything, "event-1", mock.MatchedBy(func(r *dto.UpdateEventRequest) bool {
		return r.IsEmpty()
	})).Return(testEvent("event-1", domain.EventStatusPublic), nil)
	svc.On("UpdateEvent", mock.Anything, "missing", mock.Anything).Return(nil, domain.NewNotFoundError("event.update", "event", "missing"))

	tests := []struct {
		name     string
		id       string
		body     string
		wantCode int
	}{
		{name: "explicit null reaches the service", id: "event-1", body: `{"end_date": null}`, wantCode: http.StatusOK},
		{name: "empty patch", id: "event-1", body: `{}`, wantCode: http.StatusOK},
		{name: "not found", id: "missing", body: `{"title_fr": "x"}`, wantCode: http.StatusNotFound},
		{name: "invalid body", id: "event-1", body: `[1,2]`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupEventRouter(NewEventHandler(svc, new(MockEventQueryService)), RoleStaff)
			req := httptest.NewRequest(http.MethodPatch, "/events/"+tt.id, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			assert.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
		})
	}
}

func TestEventHandler_Delete(t *testing.T) {
	svc := new(MockEventService)
	svc.On("DeleteEvent", mock.Anything, "event-1").Return(true, nil)
	svc.On("DeleteEvent", mock.Anything, "gone").Return(false, nil)
	svc.On("DeleteEvent", mock.Anything, "broken").Return(false, domain.NewDependencyError("event.delete", "postgres", errors.New("timeout")))

	tests := []struct {
		id       string
		wantCode int
	}{
		{id: "event-1", wantCode: http.StatusOK},
		{id: "gone", wantCode: http.StatusNotFound},
		{id: "broken", wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			router := setupEventRouter(NewEventHandler(svc, new(MockEventQueryService)), RoleAdmin)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/events/"+tt.id, nil))

			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
	svc.AssertExpectations(t)
}
