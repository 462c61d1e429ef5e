// Package session holds the per-user analysis state: the uploaded image, the
// grid size being edited, and the last committed analysis.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/inkgrid/server/internal/grid"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrNoImage is returned when an operation needs an image and none was uploaded.
	ErrNoImage = errors.New("no image uploaded")
	// ErrNotAnalyzed is returned when results are requested before the first analysis.
	ErrNotAnalyzed = errors.New("image has not been analyzed")
)

// Analysis is the immutable result of one commit. It keeps the image it was
// sampled from so that cell crops stay consistent after a re-upload.
type Analysis struct {
	Generation uint64
	Spec       grid.Spec
	Grid       *grid.ColorGrid
	Image      *grid.Image
	CreatedAt  time.Time
}

// Session is one user's workspace. All methods are safe for concurrent use;
// requests for the same session are serialised.
type Session struct {
	ID string

	mu          sync.Mutex
	image       *grid.Image
	imageFormat string
	draft       grid.Spec
	analysis    *Analysis
	generation  uint64
	createdAt   time.Time
	updatedAt   time.Time
	now         func() time.Time
}

func newSession(id string, draft grid.Spec, now func() time.Time) *Session {
	t := now()
	return &Session{
		ID:        id,
		draft:     draft,
		createdAt: t,
		updatedAt: t,
		now:       now,
	}
}

// SetImage replaces the uploaded image. The current analysis, if any, stays
// in place until the next Analyze.
func (s *Session) SetImage(img *grid.Image, format string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = img
	s.imageFormat = format
	s.updatedAt = s.now()
}

// Image returns the current uploaded image.
func (s *Session) Image() (*grid.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return nil, ErrNoImage
	}
	return s.image, nil
}

// SetDraft stores the grid size to use on the next Analyze. It does not
// affect the committed analysis.
func (s *Session) SetDraft(spec grid.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = spec
	s.updatedAt = s.now()
	return nil
}

// Draft returns the grid size that the next Analyze will commit.
func (s *Session) Draft() grid.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Analyze commits the draft grid size and samples the current image with it.
// On error the previous analysis is left untouched.
func (s *Session) Analyze() (*Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return nil, ErrNoImage
	}
	spec := s.draft
	g, err := grid.Sample(s.image, spec)
	if err != nil {
		return nil, err
	}

	t := s.now()
	s.generation++
	s.analysis = &Analysis{
		Generation: s.generation,
		Spec:       spec,
		Grid:       g,
		Image:      s.image,
		CreatedAt:  t,
	}
	s.updatedAt = t
	return s.analysis, nil
}

// Analysis returns the last committed analysis.
func (s *Session) Analysis() (*Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analysis == nil {
		return nil, ErrNotAnalyzed
	}
	return s.analysis, nil
}

// State is a JSON-friendly snapshot of a session.
type State struct {
	ID          string     `json:"session_id"`
	HasImage    bool       `json:"has_image"`
	ImageWidth  int        `json:"image_width,omitempty"`
	ImageHeight int        `json:"image_height,omitempty"`
	ImageFormat string     `json:"image_format,omitempty"`
	Draft       grid.Spec  `json:"draft"`
	Committed   *grid.Spec `json:"committed,omitempty"`
	Generation  uint64     `json:"generation"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:         s.ID,
		Draft:      s.draft,
		Generation: s.generation,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	if s.image != nil {
		st.HasImage = true
		st.ImageWidth = s.image.Width()
		st.ImageHeight = s.image.Height()
		st.ImageFormat = s.imageFormat
	}
	if s.analysis != nil {
		committed := s.analysis.Spec
		st.Committed = &committed
	}
	return st
}
