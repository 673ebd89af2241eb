package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wifi_tracker/internal/models"
	"wifi_tracker/internal/service"
)

func TestGetStats(t *testing.T) {
	last := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	ing := &mockIngest{stats: models.IngestStats{
		LinesRead:     10,
		EventsApplied: 7,
		ParseFailures: 1,
		Unrecognized:  2,
		LastEventAt:   &last,
	}}
	r := newTestRouter(&service.Service{Devices: &mockDevices{}, Ingest: ing})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}

	var body struct {
		Stats models.IngestStats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.LinesRead != 10 || body.Stats.EventsApplied != 7 || body.Stats.Unrecognized != 2 {
		t.Fatalf("stats=%+v", body.Stats)
	}
	if body.Stats.LastEventAt == nil || !body.Stats.LastEventAt.Equal(last) {
		t.Fatalf("last_event_at=%v", body.Stats.LastEventAt)
	}
}

func TestGetStats_NoIngest(t *testing.T) {
	r := newTestRouter(&service.Service{Devices: &mockDevices{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
