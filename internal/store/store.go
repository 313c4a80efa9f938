// Package store provides the file backed stores used by the notification
// triggers host: position records, uploaded blobs and user profiles.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/duotasks/companiond/api/events"
	"github.com/duotasks/companiond/internal/triggers"
)

// Positions persists position records in a single JSON file, keyed by
// (owner id, name).
type Positions struct {
	path string
	mu   sync.Mutex

	records map[string]events.Position
}

// LoadPositions parses the on-disk position records and returns a Positions
// store. A missing file yields an empty store.
func LoadPositions(path string) (*Positions, error) {
	s := Positions{
		path:    path,
		records: map[string]events.Position{},
	}

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &s, nil
		}

		return nil, err
	}

	err = json.Unmarshal(body, &s.records)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// UpsertPosition creates or replaces the record for the position's
// (owner id, name) key.
func (s *Positions) UpsertPosition(_ context.Context, position events.Position) error {
	if position.OwnerID == "" || position.Name == "" {
		return errors.New("position record requires an owner id and a name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[position.OwnerID+"/"+position.Name] = position

	return s.save()
}

// GetPosition returns the record for the given (owner id, name) key.
func (s *Positions) GetPosition(_ context.Context, ownerID string, name string) (events.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[ownerID+"/"+name]
	if !ok {
		return events.Position{}, triggers.ErrNotFound
	}

	return record, nil
}

// DeletePosition removes the record for the given (owner id, name) key and
// returns it, so the caller can clean up the referenced blob.
func (s *Positions) DeletePosition(_ context.Context, ownerID string, name string) (events.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerID + "/" + name

	record, ok := s.records[key]
	if !ok {
		return events.Position{}, triggers.ErrNotFound
	}

	delete(s.records, key)

	return record, s.save()
}

// save writes out the records. Callers must hold the lock.
func (s *Positions) save() error {
	body, err := json.MarshalIndent(s.records, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, body, 0o600)
}

// Blobs stores uploaded blobs as plain files under a root directory.
type Blobs struct {
	root string
}

// NewBlobs returns a blob store rooted at the given directory.
func NewBlobs(root string) (*Blobs, error) {
	err := os.MkdirAll(root, 0o700)
	if err != nil {
		return nil, err
	}

	return &Blobs{root: root}, nil
}

// Put writes a blob under the given object name.
func (s *Blobs) Put(_ context.Context, name string, body []byte) error {
	path, err := s.blobPath(name)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return err
	}

	return os.WriteFile(path, body, 0o600)
}

// Delete removes the named blob, returning ErrNotFound when it's already gone.
func (s *Blobs) Delete(_ context.Context, name string) error {
	path, err := s.blobPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return triggers.ErrNotFound
		}

		return err
	}

	return nil
}

// blobPath resolves an object name to a path under the root, rejecting names
// that would escape it.
func (s *Blobs) blobPath(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", errors.New("invalid object name '" + name + "'")
	}

	path := filepath.Join(s.root, filepath.FromSlash(name))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", errors.New("invalid object name '" + name + "'")
	}

	return path, nil
}

// Profile holds the per-user attributes the triggers need.
type Profile struct {
	DisplayName string `json:"display_name"`
	PushToken   string `json:"push_token"`
}

// Profiles reads user profiles from a JSON file keyed by uid.
type Profiles struct {
	path string
	mu   sync.Mutex

	profiles map[string]Profile
}

// LoadProfiles parses the on-disk profiles and returns a Profiles store. A
// missing file yields an empty store.
func LoadProfiles(path string) (*Profiles, error) {
	s := Profiles{
		path:     path,
		profiles: map[string]Profile{},
	}

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &s, nil
		}

		return nil, err
	}

	err = json.Unmarshal(body, &s.profiles)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// PushToken returns the push token registered for the user.
func (s *Profiles) PushToken(_ context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[uid]
	if !ok || profile.PushToken == "" {
		return "", triggers.ErrNotFound
	}

	return profile.PushToken, nil
}

// DisplayName returns the user's display name.
func (s *Profiles) DisplayName(_ context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[uid]
	if !ok || profile.DisplayName == "" {
		return "", triggers.ErrNotFound
	}

	return profile.DisplayName, nil
}

// SetProfile creates or replaces a user profile.
func (s *Profiles) SetProfile(_ context.Context, uid string, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[uid] = profile

	body, err := json.MarshalIndent(s.profiles, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, body, 0o600)
}
