package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	State         string         `json:"state"`
	Phase         string         `json:"phase,omitempty"`
	Stage         int            `json:"stage"`
	StageCount    int            `json:"stage_count"`
	Running       bool           `json:"running"`
	Ready         bool           `json:"ready"`
	Inputs        InputsJSON     `json:"inputs"`
	Outputs       OutputsJSON    `json:"outputs"`
	Counts        CountsJSON     `json:"counts"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Resources     *ResourcesJSON `json:"resources,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// ResourcesJSON reports the daemon's own CPU and memory use.
type ResourcesJSON struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
}

// InputsJSON reports the debounced inputs.
type InputsJSON struct {
	Start  bool `json:"start"`
	EStop  bool `json:"estop"`
	Limit  bool `json:"limit"`
	Object bool `json:"object"`
}

// OutputsJSON reports the commanded outputs.
type OutputsJSON struct {
	Motor      string `json:"motor"`
	Pump       string `json:"pump"`
	ValveAngle int    `json:"valve_angle"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Arms    int `json:"arms"`
	Cycles  int `json:"cycles"`
	EStops  int `json:"estops"`
	Aborted int `json:"aborted"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	DebounceMs      int64  `json:"debounce_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Doses           string `json:"doses"`
	DoseUnitMs      int64  `json:"dose_unit_ms"`
	PumpMs          int64  `json:"pump_ms"`
	ValveOpenAngle  int    `json:"valve_open_angle"`
	ValveCloseAngle int    `json:"valve_close_angle"`
	Interlock       string `json:"interlock"`
	Broker          string `json:"broker"`
	HTTPPort        string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if !snap.Baselined || state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:      state,
		Phase:      string(snap.Phase),
		Stage:      snap.Stage,
		StageCount: snap.StageCount,
		Running:    snap.Running,
		Ready:      snap.Baselined,
		Inputs: InputsJSON{
			Start:  snap.Inputs.Start,
			EStop:  snap.Inputs.EStop,
			Limit:  snap.Inputs.Limit,
			Object: snap.Inputs.Object,
		},
		Outputs: OutputsJSON{
			Motor:      string(snap.Outputs.Motor),
			Pump:       string(snap.Outputs.Pump),
			ValveAngle: snap.Outputs.ValveAngle,
		},
		Counts: CountsJSON{
			Arms:    snap.Counts.Arms,
			Cycles:  snap.Counts.Cycles,
			EStops:  snap.Counts.EStops,
			Aborted: snap.Counts.Aborted,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			DebounceMs:      snap.Config.DebounceMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Doses:           snap.Config.Doses,
			DoseUnitMs:      snap.Config.DoseUnitMs,
			PumpMs:          snap.Config.PumpMs,
			ValveOpenAngle:  snap.Config.ValveOpenAngle,
			ValveCloseAngle: snap.Config.ValveCloseAngle,
			Interlock:       snap.Config.Interlock,
			Broker:          snap.Config.Broker,
			HTTPPort:        snap.Config.HTTPPort,
		},
	}
	if r := snap.Resources; r != nil {
		inner.Resources = &ResourcesJSON{CPUPercent: r.CPUPercent, RSSBytes: r.RSSBytes}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
