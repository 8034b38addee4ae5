package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/luxd/internal/history"
	"github.com/nerrad567/luxd/internal/infrastructure/config"
	"github.com/nerrad567/luxd/internal/infrastructure/logging"
	"github.com/nerrad567/luxd/internal/monitor"
)

// mockDispatcher implements Brightness for handler tests.
type mockDispatcher struct {
	records  []monitor.Record
	readings []monitor.Reading
	getErr   error
	setErr   error
	flushed  bool

	lastSetValue    int
	lastSetReadback bool
}

func (m *mockDispatcher) ListMonitorsInfo(_ context.Context, constraint monitor.Channel) []monitor.Record {
	if constraint == monitor.ChannelAny {
		return m.records
	}
	var out []monitor.Record
	for _, rec := range m.records {
		if rec.Channel == constraint {
			out = append(out, rec)
		}
	}
	return out
}

func (m *mockDispatcher) GetBrightness(_ context.Context, _ monitor.Query, _ monitor.Channel) ([]monitor.Reading, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.readings, nil
}

func (m *mockDispatcher) SetBrightness(_ context.Context, value int, _ monitor.Query, _ monitor.Channel, readback bool) ([]monitor.Reading, error) {
	if m.setErr != nil {
		return nil, m.setErr
	}
	m.lastSetValue = value
	m.lastSetReadback = readback
	if !readback {
		return nil, nil
	}
	return m.readings, nil
}

func (m *mockDispatcher) Flush() { m.flushed = true }

// mockHistory implements history.Repository backed by a map.
type mockHistory struct {
	entries map[string][]history.Entry
	err     error
}

func (m *mockHistory) Record(_ context.Context, entry history.Entry) error {
	if m.entries == nil {
		m.entries = make(map[string][]history.Entry)
	}
	m.entries[entry.Serial] = append(m.entries[entry.Serial], entry)
	return m.err
}

func (m *mockHistory) Recent(_ context.Context, serial string, _ int) ([]history.Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[serial], nil
}

func (m *mockHistory) Prune(_ context.Context, _ time.Duration) (int64, error) {
	return 0, m.err
}

func testRecords() []monitor.Record {
	return []monitor.Record{
		{
			Name:         "BenQ GL2450H",
			Model:        "GL2450H",
			Serial:       "H1AK30037",
			Manufacturer: "BenQ",
			Channel:      monitor.ChannelDDC,
			ChannelIndex: 0,
		},
		{
			Name:         "Dell U2722DE",
			Model:        "U2722DE",
			Serial:       "5B7XJ83",
			Manufacturer: "Dell",
			Channel:      monitor.ChannelWMI,
			ChannelIndex: 0,
		},
	}
}

// newTestServer builds a Server over mocks and returns its router.
func newTestServer(t *testing.T, dispatcher *mockDispatcher, repo history.Repository) http.Handler {
	t.Helper()

	srv, err := New(Deps{
		Config:     config.Default().API,
		Logger:     logging.Default(),
		Dispatcher: dispatcher,
		History:    repo,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.buildRouter()
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Deps{Dispatcher: &mockDispatcher{}})
	if err == nil {
		t.Error("New() without logger: expected error")
	}

	_, err = New(Deps{Logger: logging.Default()})
	if err == nil {
		t.Error("New() without dispatcher: expected error")
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version field = %v, want test", body["version"])
	}
}

func TestHandleListMonitors(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body struct {
		Monitors []monitor.Record `json:"monitors"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if body.Monitors[0].Serial != "H1AK30037" {
		t.Errorf("first serial = %q, want H1AK30037", body.Monitors[0].Serial)
	}
}

func TestHandleListMonitorsChannelFilter(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors?channel=ddc", nil))

	var body struct {
		Monitors []monitor.Record `json:"monitors"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	if body.Monitors[0].Channel != monitor.ChannelDDC {
		t.Errorf("channel = %q, want ddc", body.Monitors[0].Channel)
	}
}

func TestHandleListMonitorsInvalidChannel(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors?channel=hdmi", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleListMonitorNames(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/names", nil))

	var body struct {
		Names []string `json:"names"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	want := []string{"BenQ GL2450H", "Dell U2722DE"}
	if len(body.Names) != len(want) {
		t.Fatalf("names = %v, want %v", body.Names, want)
	}
	for i, name := range want {
		if body.Names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, body.Names[i], name)
		}
	}
}

func TestHandleRefresh(t *testing.T) {
	dispatcher := &mockDispatcher{}
	router := newTestServer(t, dispatcher, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/monitors/refresh", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !dispatcher.flushed {
		t.Error("Flush() was not called")
	}
}

func TestHandleGetBrightness(t *testing.T) {
	records := testRecords()
	dispatcher := &mockDispatcher{
		records: records,
		readings: []monitor.Reading{
			{Monitor: records[0], Value: 70, Valid: true},
			{Monitor: records[1], Value: 55, Valid: true},
		},
	}
	router := newTestServer(t, dispatcher, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/brightness", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Readings []monitor.Reading `json:"readings"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Readings[0].Value != 70 || !body.Readings[0].Valid {
		t.Errorf("first reading = %+v, want value 70 valid", body.Readings[0])
	}
}

func TestHandleGetBrightnessNoMatch(t *testing.T) {
	dispatcher := &mockDispatcher{getErr: fmt.Errorf("%w: %q", monitor.ErrQueryLookup, "nope")}
	router := newTestServer(t, dispatcher, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/brightness?query=nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHandleGetBrightnessAllChannelsFailed(t *testing.T) {
	dispatcher := &mockDispatcher{getErr: &monitor.AggregateError{Failures: []monitor.Failure{
		{Monitor: "BenQ GL2450H (H1AK30037)", Op: "get", Err: errors.New("vcp read rejected")},
	}}}
	router := newTestServer(t, dispatcher, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/brightness", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	var apiErr Error
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if apiErr.Code != ErrCodeChannel {
		t.Errorf("error code = %q, want %q", apiErr.Code, ErrCodeChannel)
	}
}

func TestHandleSetBrightness(t *testing.T) {
	records := testRecords()
	dispatcher := &mockDispatcher{
		records:  records,
		readings: []monitor.Reading{{Monitor: records[0], Value: 40, Valid: true}},
	}
	router := newTestServer(t, dispatcher, nil)

	payload := []byte(`{"value":40,"query":"H1AK30037","readback":true}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/v1/monitors/brightness", bytes.NewReader(payload)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if dispatcher.lastSetValue != 40 {
		t.Errorf("applied value = %d, want 40", dispatcher.lastSetValue)
	}
	if !dispatcher.lastSetReadback {
		t.Error("readback flag not forwarded")
	}

	var body struct {
		Readings []monitor.Reading `json:"readings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(body.Readings) != 1 || body.Readings[0].Value != 40 {
		t.Errorf("readings = %+v, want one reading of 40", body.Readings)
	}
}

func TestHandleSetBrightnessMissingValue(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/v1/monitors/brightness", bytes.NewReader([]byte(`{"query":"0"}`))))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleSetBrightnessInvalidBody(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/v1/monitors/brightness", bytes.NewReader([]byte(`{`))))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleMonitorHistory(t *testing.T) {
	repo := &mockHistory{entries: map[string][]history.Entry{
		"H1AK30037": {
			{ID: 2, Serial: "H1AK30037", Name: "BenQ GL2450H", Channel: "ddc", Value: 70},
			{ID: 1, Serial: "H1AK30037", Name: "BenQ GL2450H", Channel: "ddc", Value: 55},
		},
	}}
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/H1AK30037/history", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Monitors []monitorHistory `json:"monitors"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	if body.Monitors[0].Serial != "H1AK30037" || body.Monitors[0].Count != 2 {
		t.Errorf("history = %+v, want 2 entries for H1AK30037", body.Monitors[0])
	}
}

func TestHandleMonitorHistoryUnknownMonitor(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, &mockHistory{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/nope/history", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHandleMonitorHistoryNoRepository(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/H1AK30037/history", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestHandleMonitorHistoryInvalidLimit(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{records: testRecords()}, &mockHistory{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/monitors/H1AK30037/history?limit=-1", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestServer(t, &mockDispatcher{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}
