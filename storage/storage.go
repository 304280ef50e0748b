// Package storage defines the persistence interfaces for registered
// credentials and published notes.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID is returned when inserting a record whose id already exists.
	ErrDuplicateID = errors.New("duplicate record id")
)

// Credential is a registered passkey: the authenticator's credential id
// and the DER-encoded (SubjectPublicKeyInfo) P-256 public key. Rows are
// immutable once inserted.
type Credential struct {
	ID        []byte    `json:"id"`
	PublicKey []byte    `json:"publicKey"`
	CreatedAt time.Time `json:"createdAt"`
}

// CredentialStore persists registered credentials.
type CredentialStore interface {
	// Insert stores a new credential. Returns ErrDuplicateID when a
	// credential with the same id already exists.
	Insert(ctx context.Context, credential Credential) error
	// List returns all stored credentials.
	List(ctx context.Context) ([]Credential, error)
	// Count returns the number of stored credentials.
	Count(ctx context.Context) (int, error)
	// FindByID returns the credential with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id []byte) (Credential, error)
}

// Note is a published entry. The body is raw Markdown.
type Note struct {
	ID        string    `json:"noteId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteStore persists published notes.
type NoteStore interface {
	// Insert stores a new note. Returns ErrDuplicateID when a note with
	// the same id already exists.
	Insert(ctx context.Context, note Note) error
	// ByID returns the note with the given id, or ErrNotFound.
	ByID(ctx context.Context, id string) (Note, error)
	// MostRecent returns up to n notes, newest first.
	MostRecent(ctx context.Context, n int) ([]Note, error)
}
