package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/coach/internal/storage"
)

func TestAdminRooms(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/admin/rooms", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var rooms []map[string]any
	decodeInto(t, rr, &rooms)
	require.Len(t, rooms, 10)
	assert.Equal(t, "A-101", rooms[0]["roomNumber"])
	assert.Equal(t, "David Obi", rooms[0]["occupantName"])
	assert.Equal(t, "D-401", rooms[9]["roomNumber"])
}

func TestAdminAlerts(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/admin/alerts", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var alerts []map[string]any
	decodeInto(t, rr, &alerts)
	require.Len(t, alerts, 4)
	assert.Equal(t, "A-103", alerts[0]["roomNumber"])
	assert.Equal(t, "D-401", alerts[3]["roomNumber"])
	assert.EqualValues(t, 1, alerts[3]["resolved"])
}

func TestAdminDailyUsage(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/admin/usage/daily", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var usage []map[string]any
	decodeInto(t, rr, &usage)
	require.Len(t, usage, 7)
	assert.Equal(t, "Mon", usage[0]["day"])
	assert.Equal(t, "Sun", usage[6]["day"])
}

func TestAdminSummary(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/admin/summary", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.EqualValues(t, 10, body["totalRooms"])
	assert.EqualValues(t, 3, body["activeAlerts"])
	assert.InDelta(t, 1654.8, body["totalMonthlyKwh"], 1e-9)
	assert.InDelta(t, 165.48, body["avgRoomKwh"], 1e-9)
	assert.InDelta(t, 112526.4, body["estimatedBill"], 1e-9)
}

type failingAdmin struct{}

func (failingAdmin) ListRooms(context.Context) ([]storage.Room, error) {
	return nil, errors.New("disk on fire")
}

func (failingAdmin) ListPowerAlerts(context.Context) ([]storage.PowerAlert, error) {
	return nil, errors.New("disk on fire")
}

func (failingAdmin) DailyUsage(context.Context) ([]storage.DailyUsage, error) {
	return nil, errors.New("disk on fire")
}

func (failingAdmin) Summary(context.Context) (storage.UsageSummary, error) {
	return storage.UsageSummary{}, errors.New("disk on fire")
}

func TestAdmin_StoreError(t *testing.T) {
	h := NewRouter(Deps{
		Radar:  nil,
		Alerts: &stubLedger{},
		Goals:  newTestService(t),
		Admin:  failingAdmin{},
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/summary", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"failed to load summary: disk on fire"}`, rr.Body.String())
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}
