// Package bbolt provides BBolt-backed implementations of the storage
// interfaces.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/jdwb/yawp/storage"
)

var (
	credentialBucket = []byte("credentials")
	noteBucket       = []byte("notes")
)

// Open opens a BBolt database at the given path.
func Open(path string, options *bbolt.Options) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return db, nil
}

func ensureBucket(db *bbolt.DB, name []byte) error {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return nil
}

// CredentialStore implements storage.CredentialStore backed by a BBolt
// database. Credentials are keyed by their raw id.
type CredentialStore struct {
	db *bbolt.DB
}

var _ storage.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore returns a CredentialStore backed by the given
// BBolt database.
func NewCredentialStore(db *bbolt.DB) (*CredentialStore, error) {
	if err := ensureBucket(db, credentialBucket); err != nil {
		return nil, err
	}
	return &CredentialStore{db: db}, nil
}

func (s *CredentialStore) Insert(_ context.Context, credential storage.Credential) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialBucket)
		if b.Get(credential.ID) != nil {
			return storage.ErrDuplicateID
		}
		data, err := json.Marshal(credential)
		if err != nil {
			return err
		}
		return b.Put(credential.ID, data)
	})
}

func (s *CredentialStore) List(_ context.Context) ([]storage.Credential, error) {
	var credentials []storage.Credential
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(credentialBucket).ForEach(func(_, v []byte) error {
			var c storage.Credential
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			credentials = append(credentials, c)
			return nil
		})
	})
	return credentials, err
}

func (s *CredentialStore) Count(_ context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(credentialBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *CredentialStore) FindByID(_ context.Context, id []byte) (storage.Credential, error) {
	var credential storage.Credential
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(credentialBucket).Get(id)
		if data == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(data, &credential)
	})
	if err != nil {
		return storage.Credential{}, err
	}
	return credential, nil
}

// NoteStore implements storage.NoteStore backed by a BBolt database.
type NoteStore struct {
	db *bbolt.DB
}

var _ storage.NoteStore = (*NoteStore)(nil)

// NewNoteStore returns a NoteStore backed by the given BBolt database.
func NewNoteStore(db *bbolt.DB) (*NoteStore, error) {
	if err := ensureBucket(db, noteBucket); err != nil {
		return nil, err
	}
	return &NoteStore{db: db}, nil
}

func (s *NoteStore) Insert(_ context.Context, note storage.Note) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(noteBucket)
		key := []byte(note.ID)
		if b.Get(key) != nil {
			return storage.ErrDuplicateID
		}
		data, err := json.Marshal(note)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *NoteStore) ByID(_ context.Context, id string) (storage.Note, error) {
	var note storage.Note
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(noteBucket).Get([]byte(id))
		if data == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(data, &note)
	})
	if err != nil {
		return storage.Note{}, err
	}
	return note, nil
}

func (s *NoteStore) MostRecent(_ context.Context, n int) ([]storage.Note, error) {
	var notes []storage.Note
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(noteBucket).ForEach(func(_, v []byte) error {
			var note storage.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			notes = append(notes, note)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	if n > 0 && len(notes) > n {
		notes = notes[:n]
	}
	return notes, nil
}
