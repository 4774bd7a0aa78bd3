package storage

import (
	"context"
	"fmt"
	"math"
	"time"
)

// isoMillis matches the timestamp layout used by the dashboard client.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// kwhTariff is the flat rate applied to monthly consumption for bill estimates.
const kwhTariff = 68

var seedRooms = []Room{
	{RoomNumber: "A-101", OccupantName: "David Obi", Block: "A", CurrentKwh: 4.8, MonthlyKwh: 132.4, Status: "normal"},
	{RoomNumber: "A-102", OccupantName: "Favour James", Block: "A", CurrentKwh: 6.7, MonthlyKwh: 188.9, Status: "warning"},
	{RoomNumber: "A-103", OccupantName: "Musa Bello", Block: "A", CurrentKwh: 9.2, MonthlyKwh: 230.5, Status: "critical"},
	{RoomNumber: "B-201", OccupantName: "Ada Nwosu", Block: "B", CurrentKwh: 3.9, MonthlyKwh: 120.3, Status: "normal"},
	{RoomNumber: "B-202", OccupantName: "Tosin Lawal", Block: "B", CurrentKwh: 5.4, MonthlyKwh: 164.8, Status: "warning"},
	{RoomNumber: "B-203", OccupantName: "Peace Umoh", Block: "B", CurrentKwh: 2.7, MonthlyKwh: 101.9, Status: "normal"},
	{RoomNumber: "C-301", OccupantName: "Samuel Okeke", Block: "C", CurrentKwh: 8.1, MonthlyKwh: 210.2, Status: "critical"},
	{RoomNumber: "C-302", OccupantName: "Rita Yusuf", Block: "C", CurrentKwh: 4.2, MonthlyKwh: 139.4, Status: "normal"},
	{RoomNumber: "C-303", OccupantName: "John Eze", Block: "C", CurrentKwh: 7.5, MonthlyKwh: 196.1, Status: "warning"},
	{RoomNumber: "D-401", OccupantName: "Deborah Ali", Block: "D", CurrentKwh: 5.0, MonthlyKwh: 170.3, Status: "normal"},
}

var seedUsage = []DailyUsage{
	{Day: "Mon", Kwh: 312},
	{Day: "Tue", Kwh: 338},
	{Day: "Wed", Kwh: 305},
	{Day: "Thu", Kwh: 356},
	{Day: "Fri", Kwh: 372},
	{Day: "Sat", Kwh: 330},
	{Day: "Sun", Kwh: 319},
}

// seedPowerSense fills the demo tables when the rooms table is empty.
func (s *Store) seedPowerSense(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return fmt.Errorf("counting rooms: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	alerts := []PowerAlert{
		{RoomNumber: "A-103", Severity: "high", Message: "High load detected above safe threshold for 3 hours.", CreatedAt: now.Format(isoMillis)},
		{RoomNumber: "C-301", Severity: "high", Message: "Possible illegal appliance usage in room C-301.", CreatedAt: now.Add(-time.Hour).Format(isoMillis)},
		{RoomNumber: "A-102", Severity: "medium", Message: "Unusual evening consumption pattern observed.", CreatedAt: now.Add(-2 * time.Hour).Format(isoMillis)},
		{RoomNumber: "D-401", Severity: "low", Message: "Power factor dropped below optimal band briefly.", CreatedAt: now.Add(-4 * time.Hour).Format(isoMillis), Resolved: 1},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range seedRooms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (room_number, occupant_name, block, current_kwh, monthly_kwh, status) VALUES (?, ?, ?, ?, ?, ?)`,
			r.RoomNumber, r.OccupantName, r.Block, r.CurrentKwh, r.MonthlyKwh, r.Status,
		); err != nil {
			return fmt.Errorf("seeding room %s: %w", r.RoomNumber, err)
		}
	}
	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO power_alerts (room_number, severity, message, created_at, resolved) VALUES (?, ?, ?, ?, ?)`,
			a.RoomNumber, a.Severity, a.Message, a.CreatedAt, a.Resolved,
		); err != nil {
			return fmt.Errorf("seeding alert for %s: %w", a.RoomNumber, err)
		}
	}
	for _, u := range seedUsage {
		if _, err := tx.ExecContext(ctx, `INSERT INTO daily_usage (day, kwh) VALUES (?, ?)`, u.Day, u.Kwh); err != nil {
			return fmt.Errorf("seeding usage for %s: %w", u.Day, err)
		}
	}
	return tx.Commit()
}

// ListRooms returns every room ordered by room number.
func (s *Store) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_number, occupant_name, block, current_kwh, monthly_kwh, status
		FROM rooms ORDER BY room_number`)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	out := []Room{}
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.RoomNumber, &r.OccupantName, &r.Block, &r.CurrentKwh, &r.MonthlyKwh, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListPowerAlerts returns all alerts, newest first.
func (s *Store) ListPowerAlerts(ctx context.Context) ([]PowerAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_number, severity, message, created_at, resolved
		FROM power_alerts ORDER BY datetime(created_at) DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing power alerts: %w", err)
	}
	defer rows.Close()

	out := []PowerAlert{}
	for rows.Next() {
		var a PowerAlert
		if err := rows.Scan(&a.ID, &a.RoomNumber, &a.Severity, &a.Message, &a.CreatedAt, &a.Resolved); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DailyUsage returns the weekly usage series in insertion order.
func (s *Store) DailyUsage(ctx context.Context) ([]DailyUsage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day, kwh FROM daily_usage ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing daily usage: %w", err)
	}
	defer rows.Close()

	out := []DailyUsage{}
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Day, &u.Kwh); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Summary aggregates room and alert counts. With no rooms the averages are zero.
func (s *Store) Summary(ctx context.Context) (UsageSummary, error) {
	var sum UsageSummary
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(monthly_kwh), 0) FROM rooms`,
	).Scan(&sum.TotalRooms, &sum.TotalMonthlyKwh); err != nil {
		return UsageSummary{}, fmt.Errorf("summarising rooms: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM power_alerts WHERE resolved = 0`,
	).Scan(&sum.ActiveAlerts); err != nil {
		return UsageSummary{}, fmt.Errorf("counting active alerts: %w", err)
	}
	if sum.TotalRooms > 0 {
		sum.AvgRoomKwh = sum.TotalMonthlyKwh / float64(sum.TotalRooms)
	}
	sum.EstimatedBill = math.Round(sum.TotalMonthlyKwh*kwhTariff*100) / 100
	return sum, nil
}
