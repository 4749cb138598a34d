package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HealthStatus represents the overall system health
type HealthStatus struct {
	Status           string                   `json:"status"`
	Timestamp        time.Time                `json:"timestamp"`
	Message          string                   `json:"message"`
	Services         map[string]ServiceHealth `json:"services"`
	Uptime           string                   `json:"uptime"`
	WebsocketClients int                      `json:"websocket_clients"`
	DroppedEvents    int64                    `json:"dropped_events"`
}

// ServiceHealth represents health of a dependency
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Latency string `json:"latency_ms"`
}

// ClientCounter reports connected push clients
type ClientCounter interface {
	GetClientCount() int
}

// DropCounter reports events the bus could not queue
type DropCounter interface {
	Dropped() int64
}

// HealthChecker performs health checks on system components
type HealthChecker struct {
	db        *sql.DB
	clients   ClientCounter
	bus       DropCounter
	startTime time.Time
}

// NewHealthChecker creates a new health checker; clients and bus may be nil
func NewHealthChecker(db *sql.DB, clients ClientCounter, bus DropCounter) *HealthChecker {
	return &HealthChecker{
		db:        db,
		clients:   clients,
		bus:       bus,
		startTime: time.Now(),
	}
}

// Check performs a complete health check
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceHealth),
		Uptime:    hc.calculateUptime(),
	}

	dbHealth := hc.checkDatabase(ctx)
	status.Services["database"] = dbHealth

	if hc.clients != nil {
		status.WebsocketClients = hc.clients.GetClientCount()
	}
	if hc.bus != nil {
		status.DroppedEvents = hc.bus.Dropped()
	}

	if dbHealth.Status != "healthy" {
		status.Status = "degraded"
		status.Message = "Database connectivity issue"
	} else {
		status.Message = "System operating normally"
	}
	return status
}

// Ready reports whether the store answers
func (hc *HealthChecker) Ready(ctx context.Context) error {
	if hc.db == nil {
		return fmt.Errorf("no database configured")
	}
	return hc.db.PingContext(ctx)
}

func (hc *HealthChecker) checkDatabase(ctx context.Context) ServiceHealth {
	start := time.Now()
	err := hc.Ready(ctx)
	latency := time.Since(start)

	if err != nil {
		return ServiceHealth{
			Status:  "unhealthy",
			Message: "Database connection failed: " + err.Error(),
			Latency: fmt.Sprintf("%d", latency.Milliseconds()),
		}
	}

	return ServiceHealth{
		Status:  "healthy",
		Message: "Database connection successful",
		Latency: fmt.Sprintf("%d", latency.Milliseconds()),
	}
}

// calculateUptime calculates system uptime as human-readable string
func (hc *HealthChecker) calculateUptime() string {
	elapsed := time.Since(hc.startTime)

	days := int(elapsed.Hours()) / 24
	hours := int(elapsed.Hours()) % 24
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
