package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/luxd/internal/history"
	"github.com/nerrad567/luxd/internal/monitor"
)

// maxQueryParamLen bounds user-supplied query strings. Monitor serials
// and names are far shorter than this.
const maxQueryParamLen = 128

// monitorHistory is the per-monitor slice of the history response.
type monitorHistory struct {
	Serial  string          `json:"serial"`
	Name    string          `json:"name"`
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// setBrightnessRequest is the PUT /monitors/brightness request body.
type setBrightnessRequest struct {
	Value    *int   `json:"value"`
	Query    string `json:"query,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Readback bool   `json:"readback,omitempty"`
}

// handleListMonitors returns the merged, deduplicated monitor list.
func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	constraint, ok := s.parseConstraint(w, r)
	if !ok {
		return
	}

	records := s.dispatcher.ListMonitorsInfo(r.Context(), constraint)
	writeJSON(w, http.StatusOK, map[string]any{
		"monitors": records,
		"count":    len(records),
	})
}

// handleListMonitorNames returns only the display names of addressable monitors.
func (s *Server) handleListMonitorNames(w http.ResponseWriter, r *http.Request) {
	constraint, ok := s.parseConstraint(w, r)
	if !ok {
		return
	}

	records := s.dispatcher.ListMonitorsInfo(r.Context(), constraint)
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"names": names,
		"count": len(names),
	})
}

// handleRefresh drops cached enumerations so the next call re-probes hardware.
// Useful after plugging or unplugging a monitor.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.dispatcher.Flush()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleGetBrightness reads brightness for every monitor matching the query.
func (s *Server) handleGetBrightness(w http.ResponseWriter, r *http.Request) {
	constraint, ok := s.parseConstraint(w, r)
	if !ok {
		return
	}

	queryStr := r.URL.Query().Get("query")
	if len(queryStr) > maxQueryParamLen {
		writeBadRequest(w, "query exceeds maximum length")
		return
	}

	readings, err := s.dispatcher.GetBrightness(r.Context(), monitor.ParseQuery(queryStr), constraint)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}

// handleSetBrightness applies a brightness value to every monitor matching
// the request query.
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req setBrightnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}
	if len(req.Query) > maxQueryParamLen {
		writeBadRequest(w, "query exceeds maximum length")
		return
	}

	constraint, err := monitor.ParseChannel(req.Channel)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	readings, err := s.dispatcher.SetBrightness(r.Context(), *req.Value, monitor.ParseQuery(req.Query), constraint, req.Readback)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	resp := map[string]any{"status": "ok"}
	if req.Readback {
		resp["readings"] = readings
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMonitorHistory returns recent brightness history for every monitor
// matching the path query.
func (s *Server) handleMonitorHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "brightness history unavailable")
		return
	}

	constraint, ok := s.parseConstraint(w, r)
	if !ok {
		return
	}

	queryStr := chi.URLParam(r, "query")
	if queryStr == "" || len(queryStr) > maxQueryParamLen {
		writeBadRequest(w, "invalid monitor query")
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	records, err := monitor.Filter(monitor.ParseQuery(queryStr), s.dispatcher.ListMonitorsInfo(r.Context(), constraint), constraint)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	monitors := make([]monitorHistory, 0, len(records))
	for _, rec := range records {
		entries, err := s.history.Recent(r.Context(), rec.Serial, limit)
		if err != nil {
			writeInternalError(w, "failed to load brightness history")
			return
		}
		monitors = append(monitors, monitorHistory{
			Serial:  rec.Serial,
			Name:    rec.Name,
			Entries: entries,
			Count:   len(entries),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"monitors": monitors,
		"count":    len(monitors),
	})
}

// parseConstraint reads the optional ?channel= parameter. On failure it
// writes a 400 response and reports false.
func (s *Server) parseConstraint(w http.ResponseWriter, r *http.Request) (monitor.Channel, bool) {
	constraint, err := monitor.ParseChannel(r.URL.Query().Get("channel"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return monitor.ChannelAny, false
	}
	return constraint, true
}

// parseHistoryLimit validates the optional ?limit= parameter. Zero means
// "repository default".
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}

// writeDispatchError maps dispatcher errors onto HTTP responses.
//
// Malformed queries are the caller's fault (400), a query that resolves
// to nothing is a missing resource (404), and an operation where every
// channel call failed is reported as the hardware being unavailable (503).
func (s *Server) writeDispatchError(w http.ResponseWriter, err error) {
	var agg *monitor.AggregateError
	switch {
	case errors.Is(err, monitor.ErrQueryType):
		writeBadRequest(w, err.Error())
	case errors.Is(err, monitor.ErrQueryIndex), errors.Is(err, monitor.ErrQueryLookup):
		writeNotFound(w, err.Error())
	case errors.As(err, &agg):
		writeError(w, http.StatusServiceUnavailable, ErrCodeChannel, agg.Error())
	default:
		writeInternalError(w, "brightness operation failed")
	}
}
