package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatSample(t *testing.T) {
	s := Sample{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Target:    200,
		Current:   199.95,
		Ambient:   24.5,
		PTerm:     1.5,
		ITerm:     100,
		DTerm:     -0.25,
		Power:     450,
		RelayOn:   true,
		Timeouts:  0,
	}

	payload, err := FormatSample(s)
	if err != nil {
		t.Fatalf("FormatSample: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	inner, ok := decoded["sample"]
	if !ok {
		t.Fatal("missing sample envelope")
	}
	if inner["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp: got %v", inner["timestamp"])
	}
	if inner["target_c"] != 200.0 {
		t.Errorf("target_c: got %v", inner["target_c"])
	}
	if inner["power"] != 450.0 {
		t.Errorf("power: got %v", inner["power"])
	}
	if inner["relay_on"] != true {
		t.Errorf("relay_on: got %v", inner["relay_on"])
	}
}

func TestFormatSystemOmitsEmptyReason(t *testing.T) {
	e := SystemEvent{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Event:     "STARTUP",
	}
	payload, err := FormatSystem(e)
	if err != nil {
		t.Fatalf("FormatSystem: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := decoded["system"]["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
	if decoded["system"]["event"] != "STARTUP" {
		t.Errorf("event: got %v", decoded["system"]["event"])
	}
}

func TestFormatSystemRawPayloadPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP","target_c":200}}`)
	e := SystemEvent{
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Event:      "STARTUP",
		RawPayload: raw,
	}

	payload, err := FormatSystem(e)
	if err != nil {
		t.Fatalf("FormatSystem: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("payload: got %s, want raw payload unchanged", payload)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishSample(Sample{Target: 200}); err != nil {
		t.Fatalf("PublishSample: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "SHUTDOWN", Reason: "SIGTERM"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(f.Samples) != 1 || f.Samples[0].Target != 200 {
		t.Errorf("samples: %+v", f.Samples)
	}
	if len(f.SamplePayloads) != 1 {
		t.Errorf("payloads: got %d, want 1", len(f.SamplePayloads))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Reason != "SIGTERM" {
		t.Errorf("system events: %+v", f.SystemEvents)
	}
	if len(f.SystemPayloads) != 1 {
		t.Errorf("system payloads: got %d, want 1", len(f.SystemPayloads))
	}
}

func TestFakePublisherRecordsRawSystemPayload(t *testing.T) {
	f := NewFakePublisher()
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)

	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT", RawPayload: raw}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(f.SystemPayloads) != 1 || string(f.SystemPayloads[0]) != string(raw) {
		t.Errorf("system payloads: %s", f.SystemPayloads)
	}
}

func TestRingBufferFIFO(t *testing.T) {
	r := newRingBuffer(3)

	r.push(bufferedMsg{topic: "a"})
	r.push(bufferedMsg{topic: "b"})
	if r.len() != 2 {
		t.Fatalf("len: got %d, want 2", r.len())
	}

	msgs := r.drainAll()
	if len(msgs) != 2 || msgs[0].topic != "a" || msgs[1].topic != "b" {
		t.Errorf("drain order: %+v", msgs)
	}
	if r.len() != 0 {
		t.Errorf("len after drain: got %d, want 0", r.len())
	}
	if r.drainAll() != nil {
		t.Error("drain of empty buffer should return nil")
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	r := newRingBuffer(3)

	if r.push(bufferedMsg{topic: "a"}) {
		t.Error("push below capacity should not drop")
	}
	r.push(bufferedMsg{topic: "b"})
	r.push(bufferedMsg{topic: "c"})
	if !r.push(bufferedMsg{topic: "d"}) {
		t.Error("push at capacity should report a drop")
	}

	msgs := r.drainAll()
	if len(msgs) != 3 {
		t.Fatalf("len: got %d, want 3", len(msgs))
	}
	want := []string{"b", "c", "d"}
	for i, w := range want {
		if msgs[i].topic != w {
			t.Errorf("msg %d: got %q, want %q", i, msgs[i].topic, w)
		}
	}
}
