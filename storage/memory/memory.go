// Package memory provides thread-safe in-memory implementations of the
// storage interfaces. Suitable for tests and ephemeral use.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jdwb/yawp/internal/util"
	"github.com/jdwb/yawp/storage"
)

// CredentialStore is a thread-safe in-memory storage.CredentialStore.
type CredentialStore struct {
	mu          sync.RWMutex
	credentials []storage.Credential
}

var _ storage.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore creates an empty in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Insert(_ context.Context, credential storage.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.credentials {
		if string(existing.ID) == string(credential.ID) {
			return storage.ErrDuplicateID
		}
	}
	s.credentials = append(s.credentials, cloneCredential(credential))
	return nil
}

func (s *CredentialStore) List(_ context.Context) ([]storage.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Credential, 0, len(s.credentials))
	for _, c := range s.credentials {
		out = append(out, cloneCredential(c))
	}
	return out, nil
}

func (s *CredentialStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials), nil
}

func (s *CredentialStore) FindByID(_ context.Context, id []byte) (storage.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.credentials {
		if string(c.ID) == string(id) {
			return cloneCredential(c), nil
		}
	}
	return storage.Credential{}, storage.ErrNotFound
}

func cloneCredential(c storage.Credential) storage.Credential {
	return storage.Credential{
		ID:        util.CopyBytes(c.ID),
		PublicKey: util.CopyBytes(c.PublicKey),
		CreatedAt: c.CreatedAt,
	}
}

// NoteStore is a thread-safe in-memory storage.NoteStore.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[string]storage.Note
}

var _ storage.NoteStore = (*NoteStore)(nil)

// NewNoteStore creates an empty in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{notes: make(map[string]storage.Note)}
}

func (s *NoteStore) Insert(_ context.Context, note storage.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[note.ID]; ok {
		return storage.ErrDuplicateID
	}
	s.notes[note.ID] = note
	return nil
}

func (s *NoteStore) ByID(_ context.Context, id string) (storage.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return storage.Note{}, storage.ErrNotFound
	}
	return note, nil
}

func (s *NoteStore) MostRecent(_ context.Context, n int) ([]storage.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Note, 0, len(s.notes))
	for _, note := range s.notes {
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
