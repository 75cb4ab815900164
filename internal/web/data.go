package web

import "html/template"

// PageData is the common data structure for all pages
type PageData struct {
	Title     string
	ActiveNav string // "dashboard", "history", "help", ""
	Content   any
	Error     string
}

// SessionRow is a view model for one tracked session
type SessionRow struct {
	ID         string // shortened for display
	RemoteAddr string
	UserAgent  string
	Requests   int64
	Created    string // formatted timestamp
	LastSeen   string // formatted timestamp
	Age        string // humanized duration
}

// DashboardData is the view model for the dashboard/index page
type DashboardData struct {
	Sessions    []SessionRow
	Total       int
	CurrentLoad int64 // 0 when no load is outstanding
	Clients     int   // connected websocket clients
}

// RunRow is a view model for one audit-store entry
type RunRow struct {
	TaskID   int64
	Kind     string
	State    string
	Started  string
	Duration string // "" while still running
	Items    string // "" when not recorded
	Error    string
}

// HistoryData is the view model for the load history page
type HistoryData struct {
	Runs  []RunRow
	Total int
}

// HelpData is the view model for the rendered help page
type HelpData struct {
	HTML template.HTML
}
