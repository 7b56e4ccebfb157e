// Package persist provides best-effort durability for playback state across
// restarts. It is strictly advisory: every read and write failure is
// swallowed and the feature degrades to "no continuity".
package persist

import (
	"encoding/json"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/purplemusic/purplemusic/domain"
)

const (
	snapshotFile  = "playback.json"
	profileFile   = "profile.json"
	languageFile  = "language"
	dismissedFile = "dismissed_payment"
)

// Store serializes small independent state files under one directory. Each
// key is independently optional and independently safe to lose.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a store rooted at dir. The directory is created lazily on the
// first write.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Save writes the playback snapshot. Errors are logged at debug level and
// otherwise ignored.
func (s *Store) Save(snap domain.Snapshot) {
	s.writeJSON(snapshotFile, snap)
}

// Load reads the playback snapshot from the last run. Absent or corrupt
// data yields a zero snapshot, never an error: startup must not depend on
// persistence.
func (s *Store) Load() domain.Snapshot {
	var snap domain.Snapshot
	snap.QueueIndex = -1
	s.readJSON(snapshotFile, &snap)
	return snap
}

// SaveProfile caches the authenticated user profile.
func (s *Store) SaveProfile(u domain.User) {
	s.writeJSON(profileFile, u)
}

// LoadProfile returns the cached profile, or false when none is usable.
func (s *Store) LoadProfile() (domain.User, bool) {
	var u domain.User
	if !s.readJSON(profileFile, &u) {
		return domain.User{}, false
	}
	return u, u.UID != ""
}

// ClearProfile drops the cached profile (logout).
func (s *Store) ClearProfile() {
	_ = s.fs.Remove(filepath.Join(s.dir, profileFile))
}

// SaveLanguage persists the UI language preference.
func (s *Store) SaveLanguage(lang string) {
	s.writeRaw(languageFile, []byte(lang))
}

// Language returns the persisted language preference, empty when unset.
func (s *Store) Language() string {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.dir, languageFile))
	if err != nil {
		return ""
	}
	return string(b)
}

// MarkPaymentDismissed remembers that the user dismissed a pending payment,
// so the premium flow does not nag on every startup.
func (s *Store) MarkPaymentDismissed(paymentID string) {
	s.writeRaw(dismissedFile, []byte(paymentID))
}

// PaymentDismissed reports whether the given payment was dismissed before.
func (s *Store) PaymentDismissed(paymentID string) bool {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.dir, dismissedFile))
	if err != nil {
		return false
	}
	return string(b) == paymentID
}

func (s *Store) writeJSON(name string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).WithField("file", name).Debug("persist: marshal failed")
		return
	}
	s.writeRaw(name, data)
}

func (s *Store) writeRaw(name string, data []byte) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		log.WithError(err).Debug("persist: mkdir failed")
		return
	}
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, name), data, 0o644); err != nil {
		log.WithError(err).WithField("file", name).Debug("persist: write failed")
	}
}

// readJSON reports whether the file existed and parsed.
func (s *Store) readJSON(name string, v interface{}) bool {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.WithError(err).WithField("file", name).Debug("persist: corrupt state discarded")
		return false
	}
	return true
}
