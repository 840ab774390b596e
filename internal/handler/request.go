package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/dto"
	"github.com/prohmpiriya/venue-calendar/pkg/middleware"
)

// Roles allowed to write events and to see private data
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// StaffRoles is passed to middleware.RequireRole on write routes
var StaffRoles = []string{RoleAdmin, RoleStaff}

// isStaff reports an authenticated admin or staff caller
func isStaff(c *gin.Context) bool {
	return middleware.HasRole(c, StaffRoles...)
}

// responseOptions resolves the language and private field exposure
func responseOptions(c *gin.Context) dto.ResponseOptions {
	return dto.ResponseOptions{
		Lang:           dto.ResolveLanguage(c.Query("lang"), c.GetHeader("Accept-Language")),
		IncludePrivate: isStaff(c),
	}
}

// restrictedStatus reports statuses only staff may request
func restrictedStatus(statuses string) bool {
	for _, s := range strings.Split(statuses, ",") {
		switch domain.EventStatus(strings.TrimSpace(s)) {
		case domain.EventStatusDraft, domain.EventStatusPrivate:
			return true
		}
	}
	return false
}

// publiclyVisible reports whether an anonymous caller may see e
func publiclyVisible(e *domain.Event) bool {
	return e.Status == domain.EventStatusPublic || e.Status == domain.EventStatusMember
}
