package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// JobTypeTraceExport is the job type for agent traces awaiting export.
const JobTypeTraceExport = "trace_export"

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// Room is one metered hostel room.
type Room struct {
	ID           int64   `json:"id"`
	RoomNumber   string  `json:"roomNumber"`
	OccupantName string  `json:"occupantName"`
	Block        string  `json:"block"`
	CurrentKwh   float64 `json:"currentKwh"`
	MonthlyKwh   float64 `json:"monthlyKwh"`
	Status       string  `json:"status"` // "normal", "warning", "critical"
}

// PowerAlert is a consumption alert raised for a room.
type PowerAlert struct {
	ID         int64  `json:"id"`
	RoomNumber string `json:"roomNumber"`
	Severity   string `json:"severity"` // "low", "medium", "high"
	Message    string `json:"message"`
	CreatedAt  string `json:"createdAt"`
	Resolved   int    `json:"resolved"`
}

type DailyUsage struct {
	Day string  `json:"day"`
	Kwh float64 `json:"kwh"`
}

// UsageSummary aggregates consumption across all rooms.
type UsageSummary struct {
	TotalRooms      int     `json:"totalRooms"`
	ActiveAlerts    int     `json:"activeAlerts"`
	TotalMonthlyKwh float64 `json:"totalMonthlyKwh"`
	AvgRoomKwh      float64 `json:"avgRoomKwh"`
	EstimatedBill   float64 `json:"estimatedBill"`
}
