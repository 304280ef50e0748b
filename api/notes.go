package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/feeds"
	"github.com/yuin/goldmark"

	"github.com/jdwb/yawp/internal/util"
	"github.com/jdwb/yawp/storage"
)

const (
	// feedLimit caps how many notes the atom feed returns.
	feedLimit = 20
	// defaultListLimit is the page size for GET /notes when the caller
	// does not pass n.
	defaultListLimit = 25
	maxListLimit     = 100
)

// CreateNote handles POST /admin/notes. Requires an authenticated
// session.
func (a *API) CreateNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[CreateNoteRequest](w, r, maxNoteBodySize)
	if !ok {
		return
	}

	body := util.Normalize(strings.TrimSpace(req.Body))
	if body == "" {
		writeError(w, http.StatusBadRequest, "note body is empty")
		return
	}

	note := storage.Note{
		ID:        uuid.NewString(),
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.notes.Insert(r.Context(), note); err != nil {
		mapError(w, err)
		return
	}

	a.audit.log(AuditNoteCreated, r, slog.String("note_id", note.ID))
	resp, err := a.noteResponse(note)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListNotes handles GET /notes, most recent first. The optional n query
// parameter bounds the page size.
func (a *API) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	notes, err := a.notes.MostRecent(r.Context(), limit)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := NoteListResponse{Notes: make([]NoteResponse, 0, len(notes))}
	for _, note := range notes {
		nr, err := a.noteResponse(note)
		if err != nil {
			mapError(w, err)
			return
		}
		resp.Notes = append(resp.Notes, nr)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetNote handles GET /notes/{noteID}.
func (a *API) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := a.notes.ByID(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		mapError(w, err)
		return
	}
	resp, err := a.noteResponse(note)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AtomFeed handles GET /atom.xml.
func (a *API) AtomFeed(w http.ResponseWriter, r *http.Request) {
	notes, err := a.notes.MostRecent(r.Context(), feedLimit)
	if err != nil {
		mapError(w, err)
		return
	}

	feed := &feeds.Feed{
		Title:  a.title,
		Link:   &feeds.Link{Href: a.baseURL},
		Author: &feeds.Author{Name: a.author},
	}
	if len(notes) > 0 {
		feed.Updated = notes[0].CreatedAt
	}
	for _, note := range notes {
		html, err := renderMarkdown(note.Body)
		if err != nil {
			mapError(w, err)
			return
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:      note.ID,
			Title:   noteTitle(note.Body),
			Link:    &feeds.Link{Href: a.baseURL + "/notes/" + note.ID},
			Content: html,
			Created: note.CreatedAt,
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		mapError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml")
	w.Write([]byte(atom))
}

func (a *API) noteResponse(note storage.Note) (NoteResponse, error) {
	html, err := renderMarkdown(note.Body)
	if err != nil {
		return NoteResponse{}, err
	}
	return NoteResponse{
		ID:        note.ID,
		Body:      note.Body,
		HTML:      html,
		CreatedAt: note.CreatedAt,
	}, nil
}

func renderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// noteTitle derives a feed entry title from the first line of the
// note, markdown markers stripped.
func noteTitle(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	line = strings.TrimSpace(strings.TrimLeft(line, "# "))
	const max = 80
	if runes := []rune(line); len(runes) > max {
		line = string(runes[:max]) + "…"
	}
	return line
}
