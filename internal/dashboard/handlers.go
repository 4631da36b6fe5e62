package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/schedule"
	"github.com/aceteam-ai/gatewatch/internal/usage"
)

// Session list sizes requested from the gateway
const (
	usageSessionLimit    = 10
	activitySessionLimit = 50
	historyDefaultLimit  = 100
)

// handleHealth reports dashboard liveness and gateway reachability.
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: s.now().UnixMilli(),
		Version:   s.cfg.Version,
		Gateway:   s.gw.Health(r.Context()),
	})
}

// handleCron returns all jobs, disabled ones included.
// GET /api/cron
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.gw.ListJobs(r.Context(), true)
	if err != nil {
		s.gatewayFailed(r, err)
		writeJSON(w, http.StatusInternalServerError, JobsResponse{Jobs: []gateway.Job{}, Error: ErrGatewayMessage})
		return
	}
	writeJSON(w, http.StatusOK, JobsResponse{Jobs: jobs})
}

// handleUsage summarizes the most recent sessions.
// GET /api/usage
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.gw.ListSessions(r.Context(), usageSessionLimit, 0)
	if err != nil {
		s.gatewayFailed(r, err)
		writeJSON(w, http.StatusInternalServerError, UsageResponse{Error: ErrGatewayMessage})
		return
	}

	sum := usage.Aggregate(sessions)
	writeJSON(w, http.StatusOK, UsageResponse{
		TodayTokens: sum.TotalTokens,
		TodayCost:   sum.TotalCost,
		Sessions:    sum.Count,
	})
}

// handleActivity returns recent sessions as flat rows.
// GET /api/activity
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.gw.ListSessions(r.Context(), activitySessionLimit, 0)
	if err != nil {
		s.gatewayFailed(r, err)
		writeJSON(w, http.StatusInternalServerError, ActivityResponse{Sessions: []SessionView{}, Error: ErrGatewayMessage})
		return
	}

	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, NewSessionView(sess))
	}
	writeJSON(w, http.StatusOK, ActivityResponse{Sessions: views})
}

// handleCalendar projects all jobs onto the Monday-based week containing
// ?week=YYYY-MM-DD (default: today).
// GET /api/calendar
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	loc := s.cfg.Location
	day := s.now().In(loc)
	if week := r.URL.Query().Get("week"); week != "" {
		t, err := time.ParseInLocation(time.DateOnly, week, loc)
		if err != nil {
			writeJSONError(w, "week must be a date in YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		day = t
	}
	start, end := schedule.WeekWindow(day)

	jobs, err := s.gw.ListJobs(r.Context(), true)
	if err != nil {
		s.gatewayFailed(r, err)
		writeJSON(w, http.StatusInternalServerError, CalendarResponse{
			Start: start.UnixMilli(),
			End:   end.UnixMilli(),
			Days:  map[string][]schedule.Occurrence{},
			Error: ErrGatewayMessage,
		})
		return
	}

	resp := CalendarResponse{
		Start: start.UnixMilli(),
		End:   end.UnixMilli(),
		Days:  schedule.GroupByDay(schedule.ProjectAll(jobs, start, end), loc),
	}
	for _, job := range jobs {
		if job.ScheduleKind != gateway.ScheduleCron {
			continue
		}
		if res := schedule.Lint(job.ScheduleExpr); !res.Valid || !res.Projected || len(res.Warnings) > 0 {
			if resp.Lint == nil {
				resp.Lint = make(map[string]schedule.LintResult)
			}
			resp.Lint[job.ID] = res
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Summary  usage.Summary `json:"summary"`
	Sessions []SessionView `json:"sessions"`
}

// handleHistory serves stored session snapshots.
// GET /api/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeJSONError(w, "history store not configured", http.StatusNotFound)
		return
	}

	limit := historyDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.cfg.History.List(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("history query failed")
		writeJSONError(w, "failed to read history", http.StatusInternalServerError)
		return
	}

	views := make([]SessionView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView(rec))
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Summary:  usage.AggregateRecords(records),
		Sessions: views,
	})
}

func recordView(r usage.Record) SessionView {
	v := SessionView{
		ID:               r.SessionID,
		Status:           r.Status,
		Model:            r.Model,
		TotalTokens:      r.TotalTokens,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		Cost:             r.Cost,
		MessageCount:     r.MessageCount,
	}
	if !r.CreatedAt.IsZero() {
		ms := r.CreatedAt.UnixMilli()
		v.CreatedAt = &ms
	}
	if !r.UpdatedAt.IsZero() {
		ms := r.UpdatedAt.UnixMilli()
		v.UpdatedAt = &ms
	}
	return v
}

func (s *Server) gatewayFailed(r *http.Request, err error) {
	s.log.Warn().
		Err(err).
		Str("path", r.URL.Path).
		Str("kind", gateway.KindOf(err).String()).
		Msg("gateway call failed")
}
