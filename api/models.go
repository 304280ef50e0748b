package api

import "time"

// ErrorResponse is the generic error payload. The message is
// deliberately non-diagnostic; detail goes to the server log.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse reports the caller's session status.
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// CreateNoteRequest is the body of POST /admin/notes.
type CreateNoteRequest struct {
	Body string `json:"body"`
}

// NoteResponse is a published note. HTML carries the rendered Markdown.
type NoteResponse struct {
	ID        string    `json:"noteId"`
	Body      string    `json:"body"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteListResponse is the body of GET /notes.
type NoteListResponse struct {
	Notes []NoteResponse `json:"notes"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
