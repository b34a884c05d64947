package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/model"
	"github.com/sells-group/competitive-intel/internal/store"
)

// maxBodyBytes caps analysis request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImpactAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, r, badRequest("request body is required"))
			return
		}
		writeError(w, r, badRequest("request body is not valid JSON"))
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), req.toRequest())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResp(analysis))
}

func (s *Server) handleSignalImpact(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	analysis, err := s.analyzer.AnalyzeSignal(r.Context(), chi.URLParam(r, "id"), filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResp(analysis))
}

func (s *Server) handleListCompetitors(w http.ResponseWriter, r *http.Request) {
	competitors, err := s.competitors.ListCompetitors(r.Context())
	if err != nil {
		writeError(w, r, eris.Wrap(err, "api: list competitors"))
		return
	}

	out := make([]competitorResp, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, newCompetitorResp(c, true))
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitors": out})
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSignalFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	signals, err := s.signals.ListSignals(r.Context(), filter)
	if err != nil {
		writeError(w, r, eris.Wrap(err, "api: list signals"))
		return
	}

	out := signalsResp{Signals: make([]signalResp, 0, len(signals)), Count: len(signals)}
	for _, sig := range signals {
		out.Signals = append(out.Signals, newSignalResp(sig))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sf, err := parseSignalFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filters, err := parseFilters(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	digest, err := s.analyzer.Digest(r.Context(), impact.DigestRequest{
		Since:        sf.Since,
		Until:        sf.Until,
		CompetitorID: sf.CompetitorID,
		Types:        sf.Types,
		Filters:      filters,
		Limit:        sf.Limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDigestResp(digest))
}

// parseSignalFilter reads competitorId, type (repeatable or comma
// separated), since, until (RFC 3339) and limit.
func parseSignalFilter(q url.Values) (store.SignalFilter, error) {
	var (
		f    store.SignalFilter
		errs []string
	)
	f.CompetitorID = strings.TrimSpace(q.Get("competitorId"))

	for _, raw := range splitList(q["type"]) {
		t, err := model.ParseSignalType(raw)
		if err != nil {
			errs = append(errs, `type "`+raw+`" is not supported`)
			continue
		}
		f.Types = append(f.Types, t)
	}

	parseTime := func(name string, dst *time.Time) {
		v := q.Get(name)
		if v == "" {
			return
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, name+" must be an RFC 3339 timestamp")
			return
		}
		*dst = t.UTC()
	}
	parseTime("since", &f.Since)
	parseTime("until", &f.Until)

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, "limit must be a positive integer")
		} else {
			f.Limit = n
		}
	}

	if len(errs) > 0 {
		return store.SignalFilter{}, badRequest(errs...)
	}
	return f, nil
}

// parseFilters reads the optional eligibility filters segment, tier and
// industry from a query string.
func parseFilters(q url.Values) (impact.Filters, error) {
	return impact.ParseFilters(q.Get("segment"), splitList(q["tier"]), q.Get("industry"))
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
