package di

import (
	"github.com/prohmpiriya/venue-calendar/internal/handler"
	"github.com/prohmpiriya/venue-calendar/internal/ics"
	"github.com/prohmpiriya/venue-calendar/internal/provider"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
	"github.com/prohmpiriya/venue-calendar/internal/service"
	"github.com/prohmpiriya/venue-calendar/pkg/config"
	"github.com/prohmpiriya/venue-calendar/pkg/database"
	"github.com/prohmpiriya/venue-calendar/pkg/redis"
)

// Container holds all dependencies for the calendar service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	Repositories repository.Repositories
	Transactor   repository.Transactor

	// Providers
	ScheduleProvider      provider.ScheduleProvider
	SpecialPeriodProvider provider.SpecialPeriodProvider
	TicketCountProvider   provider.TicketCountProvider

	// Services
	EventService    service.EventService
	RelationService service.RelationService
	QueryService    service.EventQueryService
	CalendarService service.CalendarService

	// Handlers
	HealthHandler   *handler.HealthHandler
	EventHandler    *handler.EventHandler
	RelationHandler *handler.RelationHandler
	CalendarHandler *handler.CalendarHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB       *database.PostgresDB
	Redis    *redis.Client
	Calendar config.CalendarConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}
	pool := c.DB.Pool()

	// Initialize repositories
	c.Repositories = repository.NewRepositories(pool)
	c.Transactor = repository.NewPostgresTransactor(pool)

	// Initialize providers
	policy := provider.DefaultReadPolicy()
	if cfg.Calendar.ProviderTimeout > 0 {
		policy.Timeout = cfg.Calendar.ProviderTimeout
	}
	if cfg.Calendar.ProviderMaxRetries >= 0 {
		policy.Retry.MaxRetries = cfg.Calendar.ProviderMaxRetries
	}

	c.ScheduleProvider = provider.NewPostgresScheduleProvider(pool, policy)
	c.TicketCountProvider = provider.NewPostgresTicketCountProvider(pool, policy)
	pgPeriods := provider.NewPostgresSpecialPeriodProvider(pool, policy)

	// Wrap with cache if Redis is available
	if c.Redis != nil {
		c.SpecialPeriodProvider = provider.NewCachedSpecialPeriodProvider(pgPeriods, c.Redis, cfg.Calendar.SpecialPeriodCacheTTL)
	} else {
		c.SpecialPeriodProvider = pgPeriods
	}

	// Initialize services
	c.EventService = service.NewEventService(c.Repositories, c.Transactor)
	c.RelationService = service.NewRelationService(c.Repositories, c.Transactor)
	c.QueryService = service.NewEventQueryService(c.Repositories)
	c.CalendarService = service.NewCalendarService(service.CalendarDependencies{
		Events:         c.QueryService,
		Schedules:      c.ScheduleProvider,
		SpecialPeriods: c.SpecialPeriodProvider,
		Tickets:        c.TicketCountProvider,
		MaxRangeDays:   cfg.Calendar.MaxRangeDays,
	})

	// Initialize handlers
	if c.Redis != nil {
		c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	} else {
		c.HealthHandler = handler.NewHealthHandler(c.DB, nil)
	}
	c.EventHandler = handler.NewEventHandler(c.EventService, c.QueryService)
	c.RelationHandler = handler.NewRelationHandler(c.RelationService)
	c.CalendarHandler = handler.NewCalendarHandler(c.CalendarService, ics.NewExporter(cfg.Calendar.ICSProductID))

	return c
}
