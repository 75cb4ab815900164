package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/perbu/sessmon/internal/session"
	"github.com/perbu/sessmon/internal/store"
	"github.com/yuin/goldmark"
)

// handleDashboard serves the live session list
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sessions := s.mon.Sessions()

	rows := make([]SessionRow, 0, len(sessions))
	for _, info := range sessions {
		rows = append(rows, toSessionRow(info))
	}

	data := PageData{
		Title:     "Sessions",
		ActiveNav: "dashboard",
		Content: DashboardData{
			Sessions:    rows,
			Total:       len(rows),
			CurrentLoad: s.mon.Current(),
			Clients:     s.hub.Count(),
		},
	}

	s.render(w, s.templates.index, data)
}

// handleHistory serves the load history page from the audit store
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.renderError(w, "No audit store configured", nil)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.renderError(w, "Failed to load run history", err)
		return
	}

	rows := make([]RunRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, toRunRow(run))
	}

	data := PageData{
		Title:     "Load History",
		ActiveNav: "history",
		Content: HistoryData{
			Runs:  rows,
			Total: len(rows),
		},
	}

	s.render(w, s.templates.history, data)
}

// handleHelp serves the rendered help page
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := goldmark.Convert(helpMarkdown, &buf); err != nil {
		s.renderError(w, "Failed to render help", err)
		return
	}

	data := PageData{
		Title:     "Help",
		ActiveNav: "help",
		Content: HelpData{
			HTML: template.HTML(buf.String()),
		},
	}

	s.render(w, s.templates.help, data)
}

// handleReload starts a background reload of the session list
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	id, err := s.mon.Reload()
	if err != nil {
		http.Error(w, "Failed to start reload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "started load %d\n", id)
}

// handleCancel cancels the outstanding reload, if any
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := s.mon.CancelReload()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if id == 0 {
		fmt.Fprintln(w, "no load outstanding")
		return
	}
	fmt.Fprintf(w, "canceled load %d\n", id)
}

// handleHealthz is the liveness endpoint
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleWS upgrades to a websocket and pushes refresh notifications
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.Handle(w, r)
}

// render executes a template and writes to the response
func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// renderError renders an error page
func (s *Server) renderError(w http.ResponseWriter, message string, err error) {
	errMsg := message
	if err != nil {
		errMsg = message + ": " + err.Error()
	}

	data := PageData{
		Title:     "Error",
		ActiveNav: "",
		Error:     errMsg,
		Content:   nil,
	}

	w.WriteHeader(http.StatusInternalServerError)
	s.render(w, s.templates.index, data)
}

// toSessionRow converts a session.Info to a SessionRow view model
func toSessionRow(info session.Info) SessionRow {
	id := info.ID
	if len(id) > 12 {
		id = id[:12]
	}
	return SessionRow{
		ID:         id,
		RemoteAddr: info.RemoteAddr,
		UserAgent:  info.UserAgent,
		Requests:   info.Requests,
		Created:    info.CreatedAt.Format("2006-01-02 15:04:05"),
		LastSeen:   info.LastSeen.Format("15:04:05"),
		Age:        info.Age.Round(time.Second).String(),
	}
}

// toRunRow converts a store.TaskRun to a RunRow view model
func toRunRow(run *store.TaskRun) RunRow {
	row := RunRow{
		TaskID:  run.TaskID,
		Kind:    run.Kind,
		State:   run.State,
		Started: run.StartedAt.Format("2006-01-02 15:04:05"),
	}
	if run.FinishedAt.Valid {
		row.Duration = run.Duration().Round(time.Millisecond).String()
	}
	if run.ItemCount.Valid {
		row.Items = strconv.FormatInt(run.ItemCount.Int64, 10)
	}
	if run.Error.Valid {
		row.Error = run.Error.String
	}
	return row
}
