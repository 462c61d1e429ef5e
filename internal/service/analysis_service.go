// Package service provides business logic for the inkgrid server.
package service

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"

	"github.com/inkgrid/server/internal/cache"
	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/internal/imageio"
	"github.com/inkgrid/server/internal/ink"
	"github.com/inkgrid/server/internal/render"
	"github.com/inkgrid/server/internal/report"
	"github.com/inkgrid/server/internal/session"
)

// AnalysisServiceConfig contains analysis service configuration.
type AnalysisServiceConfig struct {
	Store    *session.Store
	Cache    *cache.Manager
	Renderer *render.Renderer
	Decoder  *imageio.Decoder
	Logger   hclog.Logger
}

// AnalysisService runs uploads, analyses and exports against user sessions.
type AnalysisService struct {
	store    *session.Store
	cache    *cache.Manager
	renderer *render.Renderer
	decoder  *imageio.Decoder
	logger   hclog.Logger
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(cfg AnalysisServiceConfig) *AnalysisService {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	decoder := cfg.Decoder
	if decoder == nil {
		decoder = imageio.NewDecoder(0)
	}
	return &AnalysisService{
		store:    cfg.Store,
		cache:    cfg.Cache,
		renderer: cfg.Renderer,
		decoder:  decoder,
		logger:   logger.Named("analysis"),
	}
}

// CellInfo describes one looked-up cell.
type CellInfo struct {
	Address string  `json:"address"`
	Col     int     `json:"col"`
	Row     int     `json:"row"`
	Hex     string  `json:"hex"`
	Ink     ink.Mix `json:"ink"`
}

// CreateSession starts a new session.
func (s *AnalysisService) CreateSession() session.State {
	sess := s.store.Create()
	s.logger.Debug("session created", "session", sess.ID, "live", s.store.Len())
	return sess.State()
}

// Session returns a live session.
func (s *AnalysisService) Session(id string) (*session.Session, error) {
	return s.store.Get(id)
}

// DeleteSession ends a session and drops its cached artefacts.
func (s *AnalysisService) DeleteSession(id string) error {
	if !s.store.Delete(id) {
		return fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	s.logger.Debug("session deleted", "session", id)
	return nil
}

// UploadImage decodes an image and makes it the session's current image.
func (s *AnalysisService) UploadImage(sess *session.Session, r io.ReadSeeker, size int64) (session.State, error) {
	img, format, err := s.decoder.Decode(r)
	if err != nil {
		s.logger.Debug("upload rejected", "session", sess.ID, "error", err)
		return session.State{}, err
	}
	sess.SetImage(img, format)
	s.logger.Info("image uploaded", "session", sess.ID, "format", format,
		"size", humanize.Bytes(uint64(size)), "width", img.Width(), "height", img.Height())
	return sess.State(), nil
}

// SetDraft sets the grid size for the next analysis.
func (s *AnalysisService) SetDraft(sess *session.Session, spec grid.Spec) (session.State, error) {
	if err := sess.SetDraft(spec); err != nil {
		return session.State{}, err
	}
	return sess.State(), nil
}

// Analyze commits the draft grid and samples the session image.
func (s *AnalysisService) Analyze(sess *session.Session) (*session.Analysis, error) {
	a, err := sess.Analyze()
	if err != nil {
		s.logger.Debug("analysis failed", "session", sess.ID, "error", err)
		return nil, err
	}
	s.logger.Info("analysis committed", "session", sess.ID, "grid", a.Spec.String(), "generation", a.Generation)
	return a, nil
}

// Cell looks up one cell of the committed grid by its CCRR address.
func (s *AnalysisService) Cell(sess *session.Session, addr string) (CellInfo, error) {
	a, err := sess.Analysis()
	if err != nil {
		return CellInfo{}, err
	}
	pos, c, err := a.Grid.Lookup(addr)
	if err != nil {
		return CellInfo{}, err
	}
	return CellInfo{
		Address: pos.String(),
		Col:     pos.Col,
		Row:     pos.Row,
		Hex:     c.Hex(),
		Ink:     ink.FromRGB(c).Rounded(),
	}, nil
}

// CellImage renders the source pixels of one cell of the committed grid.
func (s *AnalysisService) CellImage(sess *session.Session, addr string) ([]byte, error) {
	a, err := sess.Analysis()
	if err != nil {
		return nil, err
	}
	pos, err := a.Spec.Resolve(addr)
	if err != nil {
		return nil, err
	}

	return s.cachedPreview(cache.PreviewKey(sess.ID, a.Generation, "cell", pos.String()), func() ([]byte, error) {
		rect := a.Spec.CellRect(a.Image.Width(), a.Image.Height(), pos)
		return s.renderer.Cell(a.Image, rect)
	})
}

// CellSwatch renders the mean colour of one cell.
func (s *AnalysisService) CellSwatch(sess *session.Session, addr string) ([]byte, error) {
	a, err := sess.Analysis()
	if err != nil {
		return nil, err
	}
	pos, c, err := a.Grid.Lookup(addr)
	if err != nil {
		return nil, err
	}

	return s.cachedPreview(cache.PreviewKey(sess.ID, a.Generation, "swatch", pos.String()), func() ([]byte, error) {
		return s.renderer.Swatch(c)
	})
}

// Mosaic renders the committed grid.
func (s *AnalysisService) Mosaic(sess *session.Session) ([]byte, error) {
	a, err := sess.Analysis()
	if err != nil {
		return nil, err
	}
	return s.cachedPreview(cache.PreviewKey(sess.ID, a.Generation, "mosaic"), func() ([]byte, error) {
		return s.renderer.Mosaic(a.Grid)
	})
}

// Overlay renders the current image with the draft grid drawn over it, so
// users can preview a grid size before committing it.
func (s *AnalysisService) Overlay(sess *session.Session) ([]byte, error) {
	img, err := sess.Image()
	if err != nil {
		return nil, err
	}
	return s.renderer.Overlay(img, sess.Draft())
}

// Report builds the ink mixing table of the committed grid.
func (s *AnalysisService) Report(sess *session.Session) ([]report.Record, error) {
	a, err := sess.Analysis()
	if err != nil {
		return nil, err
	}
	return report.Build(a.Grid), nil
}

// ReportCSV returns the CSV export of the committed grid.
func (s *AnalysisService) ReportCSV(sess *session.Session) ([]byte, error) {
	a, err := sess.Analysis()
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey(sess.ID, a.Generation, "csv")
	if data, ok := s.cache.GetReport(key); ok {
		return data, nil
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, report.Build(a.Grid)); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	data := buf.Bytes()
	s.cache.SetReport(key, data)
	return data, nil
}

// Ink converts a #rrggbb colour to its rounded ink mixture.
func (s *AnalysisService) Ink(hex string) (ink.Mix, error) {
	m, err := ink.FromHex(hex)
	if err != nil {
		return ink.Mix{}, err
	}
	return m.Rounded(), nil
}

// Stats returns runtime statistics.
func (s *AnalysisService) Stats() map[string]interface{} {
	stats := s.cache.Stats()
	stats["sessions"] = s.store.Len()
	return stats
}

func (s *AnalysisService) cachedPreview(key string, build func() ([]byte, error)) ([]byte, error) {
	if data, ok := s.cache.GetPreview(key); ok {
		return data, nil
	}
	data, err := build()
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetPreview(key, data); err != nil {
		s.logger.Warn("failed to cache preview", "key", key, "error", err)
	}
	return data, nil
}
