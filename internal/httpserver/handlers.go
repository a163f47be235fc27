package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/proboscis/claude-block-checker/internal/blocks"
	"github.com/proboscis/claude-block-checker/internal/report"
)

// handleHealth handles GET /healthz. The status is "degraded" when the
// last refresh failed and "starting" before the first one succeeds.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.version}
	summary, ok := s.source.Latest()
	if ok {
		at := summary.GeneratedAt
		resp.LastRefresh = &at
	} else {
		resp.Status = "starting"
	}
	if err := s.source.LastError(); err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSummary handles GET /api/summary?detailed=true
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.latest(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report.BuildExport(summary, detailed(r)))
}

// handleProfile handles GET /api/profiles/{name}
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.latest(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	for _, p := range summary.Profiles {
		if p.Name == name {
			respondJSON(w, http.StatusOK, report.BuildProfileExport(p, detailed(r)))
			return
		}
	}
	respondError(w, http.StatusNotFound, "profile not found: "+name)
}

// handleWebSocket handles GET /ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var initial *wsMessage
	if summary, ok := s.source.Latest(); ok {
		msg := summaryMessage(summary)
		initial = &msg
	}
	s.hub.Serve(w, r, initial)
}

func (s *Server) latest(w http.ResponseWriter) (blocks.SummaryReport, bool) {
	summary, ok := s.source.Latest()
	if !ok {
		msg := "summary not computed yet"
		if err := s.source.LastError(); err != nil {
			msg = err.Error()
		}
		respondError(w, http.StatusServiceUnavailable, msg)
	}
	return summary, ok
}

func detailed(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	return v
}

func summaryMessage(summary blocks.SummaryReport) wsMessage {
	return wsMessage{Type: "summary", Data: report.BuildExport(summary, false)}
}
