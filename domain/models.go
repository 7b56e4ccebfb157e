package domain

// Source identifies which kind of media backend a track needs.
type Source string

const (
	SourceLocal  Source = "local"  // file in the local music directory
	SourceStream Source = "stream" // direct audio URL
	SourceVideo  Source = "video"  // embedded video player (mpv)
)

// Track represents a playable item with metadata. Tracks are immutable once
// retrieved; identity is the stream URL or platform-specific ID.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	CoverArt string  // cover/thumbnail URL, may be empty
	URL      string  // stream URL or local path
	Duration float64 // in seconds, 0 = unknown until the backend reports it
	Source   Source
}

// Key returns the identity used for equality and persistence. Prefers the
// platform ID, falls back to the URL.
func (t Track) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.URL
}

// IsZero reports whether the track is the empty value.
func (t Track) IsZero() bool {
	return t.ID == "" && t.URL == ""
}

// Queue is an ordered sequence of tracks plus a current index.
// Index is always within [0, len) when the queue is non-empty, -1 when empty.
type Queue struct {
	ID     string
	Title  string
	Tracks []Track
	Index  int
}

// Current returns the track at the current index, or false when the queue is
// empty.
func (q *Queue) Current() (Track, bool) {
	if q == nil || q.Index < 0 || q.Index >= len(q.Tracks) {
		return Track{}, false
	}
	return q.Tracks[q.Index], true
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tracks)
}

// IsEmpty reports whether the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// TransportState is the live play/pause/seek/volume state of the bound
// media backend.
type TransportState struct {
	Playing  bool
	Position float64 // seconds, never exceeds Duration when Duration is known
	Duration float64 // seconds, 0 = unknown
	Volume   float64 // 0..1
}

// Clamp enforces the transport invariants: position within [0, duration]
// when the duration is known, volume within [0, 1].
func (s *TransportState) Clamp() {
	if s.Position < 0 {
		s.Position = 0
	}
	if s.Duration > 0 && s.Position > s.Duration {
		s.Position = s.Duration
	}
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 1 {
		s.Volume = 1
	}
}

// RepeatMode governs the end-of-track transition.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off" // stop at the last track
	RepeatOne RepeatMode = "one" // restart the current track
	RepeatAll RepeatMode = "all" // wrap the queue to index 0
)

// Next cycles off -> one -> all -> off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatOff
	}
}

// ParseRepeatMode converts a persisted string back to a RepeatMode,
// defaulting to off for anything unrecognized.
func ParseRepeatMode(s string) RepeatMode {
	switch RepeatMode(s) {
	case RepeatOne:
		return RepeatOne
	case RepeatAll:
		return RepeatAll
	default:
		return RepeatOff
	}
}

// PlayMode holds the shuffle/repeat policy. It persists across track
// changes until explicitly toggled.
type PlayMode struct {
	Shuffle bool
	Repeat  RepeatMode
}

// Snapshot is the serialized subset of session state written to durable
// storage for reload continuity. Every field is advisory; a lost snapshot
// only costs the resume position.
type Snapshot struct {
	TrackKey   string     `json:"track_key"`
	Position   float64    `json:"position"`
	Shuffle    bool       `json:"shuffle"`
	Repeat     RepeatMode `json:"repeat"`
	QueueIndex int        `json:"queue_index"`
}

// User is the authenticated profile returned by the identity service.
type User struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Wallet   string `json:"wallet_address"`
	Premium  bool   `json:"premium"`
}

// Playlist is a user-owned named collection stored in the backend.
type Playlist struct {
	ID      string
	OwnerID string
	Name    string
	Cover   string
	Tracks  []Track
}
