package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/dispenser/internal/logic"
	"github.com/sweeney/dispenser/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:          10,
		DebounceMs:      50,
		HeartbeatMs:     900000,
		Doses:           "1,2,3,4,8",
		DoseUnitMs:      1000,
		PumpMs:          10000,
		ValveOpenAngle:  90,
		ValveCloseAngle: 45,
		Interlock:       "legacy",
		Broker:          "tcp://192.168.1.200:1883",
		HTTPPort:        ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func dispensing() status.ControllerState {
	return status.ControllerState{
		State:      logic.StateDispensing,
		Phase:      logic.PhaseValveOpen,
		Stage:      3,
		StageCount: 5,
		Baselined:  true,
		Inputs:     logic.InputState{Limit: true, Object: true},
		Outputs:    logic.Outputs{Motor: logic.DriveStop, Pump: logic.DriveStop, ValveAngle: 90},
		Counts:     logic.Counts{Arms: 4, Cycles: 2, EStops: 1},
	}
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(dispensing())
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	s := sj.Status
	if s.State != "DISPENSING" {
		t.Errorf("State: got %q, want DISPENSING", s.State)
	}
	if s.Phase != "VALVE_OPEN" {
		t.Errorf("Phase: got %q, want VALVE_OPEN", s.Phase)
	}
	if s.Stage != 3 || s.StageCount != 5 {
		t.Errorf("Stage: got %d of %d, want 3 of 5", s.Stage, s.StageCount)
	}
	if s.Outputs.ValveAngle != 90 {
		t.Errorf("ValveAngle: got %d, want 90", s.Outputs.ValveAngle)
	}
	if !s.Inputs.Object || !s.Inputs.Limit || s.Inputs.EStop {
		t.Errorf("unexpected inputs: %+v", s.Inputs)
	}
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", s.MQTT.Broker)
	}
	if s.Counts.Cycles != 2 || s.Counts.EStops != 1 {
		t.Errorf("unexpected counts: %+v", s.Counts)
	}
	if s.Config.Doses != "1,2,3,4,8" {
		t.Errorf("Config.Doses: got %q", s.Config.Doses)
	}
	if s.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", s.Config.PollMs)
	}
}

func TestJSONUnknownStateBeforeBaseline(t *testing.T) {
	ts, _ := newTestServer(t)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.State != "UNKNOWN" {
		t.Errorf("State before baseline: got %q, want UNKNOWN", sj.Status.State)
	}
	if sj.Status.Ready {
		t.Error("expected Ready=false before baseline")
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(dispensing())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	for _, want := range []string{"DISPENSING", "VALVE_OPEN", "3 of 5", "tcp://192.168.1.200:1883"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLEmergencyStop(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(status.ControllerState{
		State:     logic.StateEmergency,
		Baselined: true,
		Inputs:    logic.InputState{EStop: true},
		Outputs:   logic.Outputs{Motor: logic.DriveStop, Pump: logic.DriveStop, ValveAngle: 45},
	})

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `class="alarm">EMERGENCY_STOP`) {
		t.Error("expected emergency stop state to be highlighted")
	}
	if strings.Contains(string(body), "Phase") {
		t.Error("phase row should be hidden outside a dispense")
	}
}

func TestHTMLUnknownBeforeBaseline(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `class="unknown">UNKNOWN`) {
		t.Error("expected UNKNOWN state before baseline")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	if getJSON(t, ts.URL+"/index.json").Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.Update(status.ControllerState{
		State:     logic.StateArmed,
		Running:   true,
		Baselined: true,
		Outputs:   logic.Outputs{Motor: logic.DriveForward, Pump: logic.DriveStop, ValveAngle: 45},
		Counts:    logic.Counts{Arms: 1},
	})
	tr.SetMQTTConnected(true)

	s := getJSON(t, ts.URL+"/index.json").Status
	if !s.Ready || !s.Running {
		t.Error("expected Ready and Running after update")
	}
	if s.State != "ARMED" {
		t.Errorf("State: got %q, want ARMED", s.State)
	}
	if s.Outputs.Motor != "FORWARD" {
		t.Errorf("Motor: got %q, want FORWARD", s.Outputs.Motor)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
		{49*time.Hour + 1500*time.Millisecond, "2d 1h 0m 1s"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHTMLShowsResources(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetResources(status.Resources{CPUPercent: 2.25, RSSBytes: 3 << 20})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "3.0 MiB") {
		t.Error("expected memory use on the page")
	}
}

func TestRejectsWrites(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow: got %q", allow)
	}
}

func TestResponsesNotCached(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/", "/index.json"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
			t.Errorf("%s Cache-Control: got %q, want no-store", path, cc)
		}
	}
}
