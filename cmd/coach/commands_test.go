package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/coach/internal/api"
)

type recordedRequest struct {
	Method  string
	Path    string
	Body    string
	Auth    string
	Session string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

// newTestServer answers "METHOD /path" keys with a 200 JSON body. A key
// prefixed with a status text ("Bad Request POST /agent") answers with that status.
func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method:  r.Method,
			Path:    r.URL.RequestURI(),
			Body:    body.String(),
			Auth:    r.Header.Get("Authorization"),
			Session: r.Header.Get(api.SessionHeader),
		})

		key := r.Method + " " + r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		if resp, ok := responses[key]; ok {
			w.Write([]byte(resp))
			return
		}
		for _, code := range []int{400, 404, 500} {
			if resp, ok := responses[http.StatusText(code)+" "+key]; ok {
				w.WriteHeader(code)
				w.Write([]byte(resp))
				return
			}
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		session:    "sess-1",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAskCommand(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"POST /agent": `{"reply":"Alert created for AVAX above $50.","actions":[{"type":"createOnchainAlert","symbol":"AVAX","targetPriceUsd":50,"isAbove":true,"txHash":"0xabc"}]}`,
	})

	var out bytes.Buffer
	if err := runAsk(ctx, ts.client(), &out, "Create alert for AVAX above 50"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out.String(), "Alert created for AVAX above $50.") {
		t.Errorf("output missing reply: %q", out.String())
	}
	if !strings.Contains(out.String(), "tx: 0xabc") {
		t.Errorf("output missing tx hash: %q", out.String())
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["message"] != "Create alert for AVAX above 50" {
		t.Errorf("body.message = %q", body["message"])
	}
}

func TestAskCommand_AgentError(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"Bad Request POST /agent": `{"reply":"Agent error: Unsupported symbol: DOGE"}`,
	})

	err := runAsk(ctx, ts.client(), &bytes.Buffer{}, "price of DOGE")
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apiError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message != "Agent error: Unsupported symbol: DOGE" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskCommand_MissingArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"ask"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing args")
	}
	if !strings.Contains(err.Error(), "requires at least 1 arg") {
		t.Errorf("error = %q, want it to mention the missing arg", err.Error())
	}
}

func TestAlertsCommand_URLEncoding(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"GET /alerts": `{"alerts":[{"owner":"0x1","symbol":"AVAX","targetPriceUsd":"50","isAbove":true,"createdAt":"2025-01-01T00:00:00.000Z","active":true}]}`,
	})

	var out bytes.Buffer
	if err := runAlerts(ctx, ts.client(), &out, "0xAbC &x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ts.requests[0].Path; got != "/alerts?owner=0xAbC+%26x" {
		t.Errorf("path = %q, want query-escaped owner", got)
	}
	for _, want := range []string{"SYMBOL", "AVAX", "above", "active"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestAlertsCommand_Empty(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /alerts": `{"alerts":[]}`,
	})

	var out bytes.Buffer
	if err := runAlerts(ctx, ts.client(), &out, "0x1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "No alerts found." {
		t.Errorf("output = %q", out.String())
	}
}

func TestCallAgent_SendsSessionHeader(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /agents/intake": `{"goalId":"goal_0123456789ab","goal":"Run a 10k","successMetric":"m","weeklyCadence":"c","initialMilestone":"i"}`,
	})

	var out map[string]any
	in := map[string]any{"resolution": "Run a 10k", "timeframeWeeks": 8, "motivation": "health"}
	if err := callAgent(ctx, ts.client(), "/agents/intake", in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out["goalId"] != "goal_0123456789ab" {
		t.Errorf("goalId = %v", out["goalId"])
	}
	r := ts.requests[0]
	if r.Session != "sess-1" {
		t.Errorf("session = %q, want sess-1", r.Session)
	}
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
}

func TestCallAgent_ValidationError(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"Bad Request POST /agents/planner": `{"error":"Invalid input","issues":{"formErrors":[],"fieldErrors":{"goalId":["Required"]}}}`,
	})

	var out map[string]any
	err := callAgent(ctx, ts.client(), "/agents/planner", map[string]any{}, &out)
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apiError, got %v", err)
	}
	if apiErr.Message != "Invalid input" {
		t.Errorf("message = %q, want Invalid input", apiErr.Message)
	}
}

func TestShowGoal(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"GET /agents/goal/latest": `{
			"goalId":"goal_0123456789ab",
			"intake":{"goalId":"goal_0123456789ab","goal":"Run a 10k","successMetric":"Finish under 60 minutes","weeklyCadence":"3 runs","initialMilestone":"5k"},
			"plan":{"goalId":"goal_0123456789ab","focus":"Build the base","weeklyMilestones":["a"],"dailyCommitments":["b"]},
			"checkIns":[{"goalId":"goal_0123456789ab","status":"On track","recommendation":"r","nextAction":"Schedule the next session"}],
			"reflections":[],
			"timeframeWeeks":8,
			"motivation":"health",
			"constraints":[]
		}`,
	})

	var out bytes.Buffer
	if err := runShowGoal(ctx, ts.client(), &out, "/agents/goal/latest"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"goal_0123456789ab Run a 10k", "8 weeks", "Build the base", "check-ins: 1, reflections: 0", "On track"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestShowGoal_NotFound(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"Not Found GET /agents/goal/goal_missing": `{"error":"Goal not found"}`,
	})

	err := runShowGoal(ctx, ts.client(), &bytes.Buffer{}, "/agents/goal/goal_missing")
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 apiError, got %v", err)
	}
	if apiErr.Message != "Goal not found" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAdminSummary(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"GET /admin/summary": `{"totalRooms":10,"activeAlerts":3,"totalMonthlyKwh":1654.8,"avgRoomKwh":165.48,"estimatedBill":112526.4}`,
	})

	s, err := fetchSummary(ctx, ts.client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalRooms != 10 || s.ActiveAlerts != 3 {
		t.Errorf("summary = %+v", s)
	}

	var out bytes.Buffer
	printSummary(&out, s)
	for _, want := range []string{"Rooms: 10", "Active alerts: 3", "1,654.8 kWh", "₦112,526.4"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAdminRooms(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"GET /admin/rooms": `[{"id":1,"roomNumber":"A-101","occupantName":"David Obi","block":"A","currentKwh":4.2,"monthlyKwh":1234.5,"status":"normal"}]`,
	})

	var out bytes.Buffer
	if err := runRooms(ctx, ts.client(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ROOM", "A-101", "David Obi", "1,234.5 kWh", "normal"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAdminPowerAlerts(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"GET /admin/alerts": `[{"id":1,"roomNumber":"A-103","severity":"high","message":"Usage spike","createdAt":"2025-01-01","resolved":0},{"id":2,"roomNumber":"D-401","severity":"low","message":"Back to normal","createdAt":"2025-01-02","resolved":1}]`,
	})

	var out bytes.Buffer
	if err := runPowerAlerts(ctx, ts.client(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "HIGH") || strings.HasPrefix(lines[0], "✓") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "✓") {
		t.Errorf("resolved alert should be marked, got %q", lines[1])
	}
}

func TestAdminDailyUsage(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	ts := newTestServer(t, map[string]string{
		"GET /admin/usage/daily": `[{"day":"Mon","kwh":1000},{"day":"Tue","kwh":250.5}]`,
	})

	var out bytes.Buffer
	if err := runDailyUsage(ctx, ts.client(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "1,250.5 kWh") {
		t.Errorf("output missing total:\n%s", out.String())
	}
}

func TestStatusSummaryDecode(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"Internal Server Error GET /admin/summary": `{"error":"failed to load summary: disk on fire"}`,
	})

	_, err := fetchSummary(ctx, ts.client())
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apiError, got %v", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", apiErr.Status)
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorRed, "test")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	result = colorize(colorRed, "test")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	c := ts.client()
	c.token = ""
	c.session = ""
	resp, err := c.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	r := ts.requests[0]
	if r.Auth != "" {
		t.Errorf("auth = %q, want no header without a token", r.Auth)
	}
	if r.Session != "" {
		t.Errorf("session = %q, want no header without a session", r.Session)
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusRequestEntityTooLarge)
	rec.WriteString("request body too large\n")

	err := decodeJSON(rec.Result(), &struct{}{})
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apiError, got %v", err)
	}
	if apiErr.Message != "request body too large" {
		t.Errorf("message = %q, want raw body text", apiErr.Message)
	}
}

func TestFormatKwh(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 kWh"},
		{165.48, "165.5 kWh"},
		{112526.4, "112,526.4 kWh"},
	}
	for _, tt := range tests {
		if got := formatKwh(tt.in); got != tt.want {
			t.Errorf("formatKwh(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeverityColor(t *testing.T) {
	if severityColor("critical") != colorRed || severityColor("high") != colorRed {
		t.Error("critical and high should be red")
	}
	if severityColor("warning") != colorYellow {
		t.Error("warning should be yellow")
	}
	if severityColor("normal") != colorGreen {
		t.Error("normal should be green")
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := parseLogLevel("debug").String(); got != "DEBUG" {
		t.Errorf("parseLogLevel(debug) = %s", got)
	}
	if got := parseLogLevel("nonsense").String(); got != "INFO" {
		t.Errorf("parseLogLevel(nonsense) = %s, want INFO", got)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := pidFilePath(t.TempDir())
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d", pid)
	}
	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("expected error after removal")
	}
}
