package dto

import (
	"testing"
	"time"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name   string
		param  string
		accept string
		want   string
	}{
		{"default", "", "", LangFr},
		{"explicit en", "en", "fr-FR", LangEn},
		{"explicit regional", "en-GB", "", LangEn},
		{"accept language", "", "en-US,en;q=0.9,fr;q=0.8", LangEn},
		{"accept prefers french", "", "fr-CA,en;q=0.5", LangFr},
		{"unsupported falls back", "de", "", LangFr},
		{"garbage param uses header", "??", "en", LangEn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLanguage(tt.param, tt.accept))
		})
	}
}

func TestCalendarRequest_Types(t *testing.T) {
	assert.Nil(t, (&CalendarRequest{}).Types())
	assert.Equal(t, []string{"museum", "external"}, (&CalendarRequest{EventTypes: "museum, ,external"}).Types())
}

func TestToCalendarResponse(t *testing.T) {
	day := domain.NewCalendarDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	opening, closing := "10:00", "18:00"
	day.IsOpen = true
	day.OpeningHours = append(day.OpeningHours, domain.OpeningHours{StartTime: &opening, EndTime: &closing, AudienceType: "all"})
	day.PaidTicketsCount = 4
	day.ClosurePeriods = append(day.ClosurePeriods, &domain.SpecialPeriod{
		ID: "sp-1", Type: domain.SpecialPeriodClosure, Name: "Travaux",
		StartDate: day.Date, EndDate: day.Date.AddDate(0, 0, 3),
	})

	cal := &domain.CalendarResponse{StartDate: day.Date, EndDate: day.Date, View: domain.ViewDay, Days: []*domain.CalendarDay{day}}
	resp := ToCalendarResponse(cal, ResponseOptions{Lang: LangFr})

	assert.Equal(t, "day", resp.View)
	require.Len(t, resp.Days, 1)
	d := resp.Days[0]
	assert.Equal(t, "2024-07-01", d.Date)
	assert.True(t, d.IsOpen)
	assert.Equal(t, 4, d.PaidTicketsCount)
	require.Len(t, d.OpeningHours, 1)
	assert.Equal(t, "10:00", *d.OpeningHours[0].StartTime)
	require.Len(t, d.ClosurePeriods, 1)
	assert.Equal(t, "2024-07-04", d.ClosurePeriods[0].EndDate)
	assert.NotNil(t, d.Events)
	assert.NotNil(t, d.HolidayPeriods)
}
