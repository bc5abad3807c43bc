// Package store persists the small bits of UI state that should
// survive a restart: which conversation was open, and unsent input per
// conversation. Server data is never cached here.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketUI     = []byte("ui")
	bucketDrafts = []byte("drafts")

	keyLastSelected = []byte("last_selected")

	// draftKeyUnsaved stands in for the empty conversation id, so a
	// draft typed before the first send is not lost either.
	draftKeyUnsaved = []byte("unsaved")
)

type LocalState struct {
	db *bolt.DB
}

func Open(path string) (*LocalState, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUI, bucketDrafts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LocalState{db: db}, nil
}

func (s *LocalState) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LastSelected returns the conversation id that was open when the
// program last exited, or "" if none was recorded.
func (s *LocalState) LastSelected() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		id = string(tx.Bucket(bucketUI).Get(keyLastSelected))
		return nil
	})
	return id, err
}

func (s *LocalState) SetLastSelected(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if id == "" {
			return tx.Bucket(bucketUI).Delete(keyLastSelected)
		}
		return tx.Bucket(bucketUI).Put(keyLastSelected, []byte(id))
	})
}

// Draft returns the unsent input saved for a conversation.
func (s *LocalState) Draft(chatID string) (string, error) {
	var draft string
	err := s.db.View(func(tx *bolt.Tx) error {
		draft = string(tx.Bucket(bucketDrafts).Get(draftKey(chatID)))
		return nil
	})
	return draft, err
}

// SetDraft saves unsent input; an empty draft removes the record.
func (s *LocalState) SetDraft(chatID, text string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if text == "" {
			return tx.Bucket(bucketDrafts).Delete(draftKey(chatID))
		}
		return tx.Bucket(bucketDrafts).Put(draftKey(chatID), []byte(text))
	})
}

// DeleteDraft drops the draft for a conversation, e.g. after it is
// deleted on the server.
func (s *LocalState) DeleteDraft(chatID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDrafts).Delete(draftKey(chatID))
	})
}

func draftKey(chatID string) []byte {
	if chatID == "" {
		return draftKeyUnsaved
	}
	return []byte(chatID)
}
