// Package session persists the current user's credential and profile.
//
// The three keys (token, user, isAuthenticated) live in one bbolt bucket and
// are only ever written or cleared together, so a reader can never observe a
// half-written session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
)

var bucketName = []byte("session")

var (
	keyToken = []byte("token")
	keyUser  = []byte("user")
	keyAuth  = []byte("isAuthenticated")
)

// TokenStore holds the persisted session.
type TokenStore struct {
	db *bolt.DB
}

// Open opens (or creates) the session file at path.
func Open(path string) (*TokenStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session db at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}

	return &TokenStore{db: db}, nil
}

// Save persists a complete session in a single transaction.
func (s *TokenStore) Save(sess model.Session) error {
	if sess.Token == "" || !sess.User.Valid() {
		return errors.New("refusing to save incomplete session")
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshaling user profile: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Put(keyToken, []byte(sess.Token)); err != nil {
			return fmt.Errorf("writing token: %w", err)
		}
		if err := b.Put(keyUser, user); err != nil {
			return fmt.Errorf("writing user: %w", err)
		}
		if err := b.Put(keyAuth, []byte("true")); err != nil {
			return fmt.Errorf("writing auth flag: %w", err)
		}
		return nil
	})
}

// IsAuthenticated reports whether a complete, consistent session is stored.
// Any partial or malformed state is cleared before returning false.
func (s *TokenStore) IsAuthenticated() bool {
	var (
		token string
		flag  string
		raw   []byte
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		token = string(b.Get(keyToken))
		flag = string(b.Get(keyAuth))
		if v := b.Get(keyUser); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to read session")
		return false
	}

	if token == "" && flag == "" && raw == nil {
		return false
	}

	var user model.User
	valid := token != "" && flag == "true" && raw != nil &&
		json.Unmarshal(raw, &user) == nil && user.Valid()
	if valid {
		return true
	}

	log.WithFields(log.Fields{
		"has_token": token != "",
		"flag":      flag,
		"has_user":  raw != nil,
	}).Warn("inconsistent session state, clearing")
	if err := s.Invalidate(); err != nil {
		log.WithError(err).Error("failed to clear inconsistent session")
	}
	return false
}

// Token returns the stored bearer token without validating the session.
func (s *TokenStore) Token() (string, bool) {
	var token string
	_ = s.db.View(func(tx *bolt.Tx) error {
		token = string(tx.Bucket(bucketName).Get(keyToken))
		return nil
	})
	return token, token != ""
}

// Profile returns the stored user profile.
func (s *TokenStore) Profile() (model.User, bool) {
	var user model.User
	var ok bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get(keyUser)
		if raw == nil {
			return nil
		}
		ok = json.Unmarshal(raw, &user) == nil && user.Valid()
		return nil
	})
	return user, ok
}

// Invalidate clears token, profile and flag together.
func (s *TokenStore) Invalidate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range [][]byte{keyToken, keyUser, keyAuth} {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("clearing %s: %w", k, err)
			}
		}
		return nil
	})
}

// Close releases the underlying file.
func (s *TokenStore) Close() error {
	return s.db.Close()
}
