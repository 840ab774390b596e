package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/internal/ics"
)

// MockCalendarService is a mock implementation of CalendarService
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) Build(ctx context.Context, req *dto.CalendarRequest) (*domain.CalendarResponse, error) {
	args := m.Called(ctx, req)
	if cal := args.Get(0); cal != nil {
		return cal.(*domain.CalendarResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRelationService is a mock implementation of RelationService
type MockRelationService struct {
	mock.Mock
}

func (m *MockRelationService) Link(ctx context.Context, parentID string, childIDs []string) error {
	return m.Called(ctx, parentID, childIDs).Error(0)
}

func (m *MockRelationService) UnlinkAll(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockRelationService) ReplaceRelated(ctx context.Context, parentID string, childIDs []string) error {
	return m.Called(ctx, parentID, childIDs).Error(0)
}

func (m *MockRelationService) Enrich(ctx context.Context, events []*domain.Event) ([]*domain.Event, error) {
	args := m.Called(ctx, events)
	return events, args.Error(1)
}

func (m *MockRelationService) ListRelations(ctx context.Context, eventID string) (*domain.Event, error) {
	args := m.Called(ctx, eventID)
	if e := args.Get(0); e != nil {
		return e.(*domain.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func oneDayCalendar() *domain.CalendarResponse {
	day, _ := domain.ParseDate("2024-07-01")
	openAt, closeAt := "10:00:00", "18:00:00"

	d := domain.NewCalendarDay(day)
	d.IsOpen = true
	d.OpeningHours = append(d.OpeningHours, domain.OpeningHours{StartTime: &openAt, EndTime: &closeAt, AudienceType: "all"})
	d.Events = append(d.Events, testEvent("A", domain.EventStatusPublic))
	d.PaidTicketsCount = 12

	return &domain.CalendarResponse{StartDate: day, EndDate: day, View: domain.ViewDay, Days: []*domain.CalendarDay{d}}
}

func setupCalendarRouter(h *CalendarHandler, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withRole(role))
	router.GET("/calendar", h.Get)
	router.GET("/calendar.ics", h.ExportICS)
	return router
}

func TestCalendarHandler_Get(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Build", mock.Anything, mock.MatchedBy(func(r *dto.CalendarRequest) bool {
		return r.StartDate == "2024-07-01" && r.View == "day"
	})).Return(oneDayCalendar(), nil)

	router := setupCalendarRouter(NewCalendarHandler(svc, nil), "")
	req := httptest.NewRequest(http.MethodGet, "/calendar?view=day&start_date=2024-07-01", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := resp.Body.String()
	assert.Contains(t, body, `"date":"2024-07-01"`)
	assert.Contains(t, body, `"is_open":true`)
	assert.Contains(t, body, `"paid_tickets_count":12`)
	assert.Contains(t, body, `"title":"Evening concert"`)
	assert.NotContains(t, body, "private_notes")
}

func TestCalendarHandler_Access(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		query    string
		wantCode int
		wantBody string
	}{
		{name: "missing start date", query: "?view=week", wantCode: http.StatusBadRequest, wantBody: "StartDate"},
		{name: "malformed include_private", query: "?start_date=2024-07-01&include_private=maybe", wantCode: http.StatusBadRequest, wantBody: "maybe"},
		{name: "anonymous private request", query: "?start_date=2024-07-01&include_private=true", wantCode: http.StatusForbidden},
		{name: "anonymous draft request", query: "?start_date=2024-07-01&status=draft", wantCode: http.StatusForbidden},
		{name: "staff private request", role: RoleStaff, query: "?start_date=2024-07-01&include_private=true", wantCode: http.StatusOK},
		{name: "anonymous default", query: "?start_date=2024-07-01", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCalendarService)
			svc.On("Build", mock.Anything, mock.Anything).Return(oneDayCalendar(), nil)

			router := setupCalendarRouter(NewCalendarHandler(svc, nil), tt.role)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/calendar"+tt.query, nil))

			assert.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
				assert.NotContains(t, resp.Body.String(), "start_date is required")
			}
		})
	}
}

func TestCalendarHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "range too long", err: domain.NewValidationError("calendar.build", "end_date", "range exceeds the maximum"), wantCode: http.StatusBadRequest},
		{name: "provider down", err: domain.NewDependencyError("calendar.build", "schedule_provider", errors.New("timeout")), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCalendarService)
			svc.On("Build", mock.Anything, mock.Anything).Return(nil, tt.err)

			router := setupCalendarRouter(NewCalendarHandler(svc, nil), "")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/calendar?start_date=2024-07-01", nil))

			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Contains(t, resp.Body.String(), `"success":false`)
		})
	}
}

func TestCalendarHandler_ExportICS(t *testing.T) {
	svc := new(MockCalendarService)
	svc.On("Build", mock.Anything, mock.Anything).Return(oneDayCalendar(), nil)

	router := setupCalendarRouter(NewCalendarHandler(svc, ics.NewExporter("-//test//EN")), "")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/calendar.ics?view=day&start_date=2024-07-01&lang=en", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.HasPrefix(resp.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "calendar-2024-07-01.ics")
	body := resp.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "PRODID:-//test//EN")
	assert.Contains(t, body, "SUMMARY:Evening concert")
	assert.Contains(t, body, "SUMMARY:Opening hours")
}

func setupRelationRouter(h *RelationHandler, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withRole(role))
	router.GET("/events/:id/relations", h.List)
	router.POST("/events/:id/relations", h.Link)
	router.PUT("/events/:id/relations", h.Replace)
	router.DELETE("/events/:id/relations", h.UnlinkAll)
	return router
}

func TestRelationHandler(t *testing.T) {
	parent := testEvent("a", domain.EventStatusPublic)
	parent.RelatedEvents = []*domain.Event{testEvent("b", domain.EventStatusPublic)}
	parent.ParentEvents = []*domain.Event{}

	svc := new(MockRelationService)
	svc.On("ListRelations", mock.Anything, "a").Return(parent, nil)
	svc.On("ListRelations", mock.Anything, "ghost").Return(nil, domain.NewNotFoundError("relation.list", "event", "ghost"))
	svc.On("Link", mock.Anything, "a", []string{"b"}).Return(nil)
	svc.On("Link", mock.Anything, "a", []string{"a"}).Return(domain.NewValidationError("relation.link", "child_event_ids", "an event cannot be related to itself"))
	svc.On("UnlinkAll", mock.Anything, "a").Return(nil)
	svc.On("ReplaceRelated", mock.Anything, "a", []string{}).Return(nil)
	svc.On("ReplaceRelated", mock.Anything, "a", []string{"ghost"}).Return(domain.NewNotFoundError("relation.link", "event", "ghost"))

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{name: "list", method: http.MethodGet, path: "/events/a/relations", wantCode: http.StatusOK},
		{name: "list unknown event", method: http.MethodGet, path: "/events/ghost/relations", wantCode: http.StatusNotFound},
		{name: "link", method: http.MethodPost, path: "/events/a/relations", body: `{"child_event_ids":["b"]}`, wantCode: http.StatusCreated},
		{name: "self link", method: http.MethodPost, path: "/events/a/relations", body: `{"child_event_ids":["a"]}`, wantCode: http.StatusBadRequest},
		{name: "link without ids", method: http.MethodPost, path: "/events/a/relations", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "replace with empty set", method: http.MethodPut, path: "/events/a/relations", body: `{"child_event_ids":[]}`, wantCode: http.StatusOK},
		{name: "replace with missing child", method: http.MethodPut, path: "/events/a/relations", body: `{"child_event_ids":["ghost"]}`, wantCode: http.StatusNotFound},
		{name: "unlink all", method: http.MethodDelete, path: "/events/a/relations", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRelationRouter(NewRelationHandler(svc), RoleAdmin)
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			assert.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
		})
	}
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(ctx context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       HealthChecker
		redis    HealthChecker
		wantCode int
		wantBody string
	}{
		{name: "all healthy", db: stubChecker{}, redis: stubChecker{}, wantCode: http.StatusOK, wantBody: `"status":"ready"`},
		{name: "redis not configured", db: stubChecker{}, wantCode: http.StatusOK, wantBody: `"redis":"not configured"`},
		{name: "database down", db: stubChecker{err: errors.New("refused")}, wantCode: http.StatusServiceUnavailable, wantBody: `"status":"not ready"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			h := NewHealthHandler(tt.db, tt.redis)
			router.GET("/health", h.Health)
			router.GET("/ready", h.Ready)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)

			resp = httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, resp.Code)
		})
	}
}
