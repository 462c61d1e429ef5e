// Package api provides HTTP handlers for the inkgrid server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/internal/imageio"
	"github.com/inkgrid/server/internal/report"
	"github.com/inkgrid/server/internal/service"
	"github.com/inkgrid/server/internal/session"
	"github.com/inkgrid/server/pkg/hexcolor"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Service        *service.AnalysisService
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	svc := cfg.Service

	r.Get("/api/stats", statsHandler(svc))
	r.Get("/api/ink", inkHandler(svc))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", createSessionHandler(svc))

		// Session-scoped routes: /api/sessions/{session}/...
		r.Route("/{session}", func(r chi.Router) {
			r.Use(sessionMiddleware(svc))

			r.Get("/", sessionStateHandler)
			r.Delete("/", deleteSessionHandler(svc))

			r.Put("/image", uploadImageHandler(svc, cfg.MaxUploadBytes))
			r.Get("/image/overlay.png", overlayHandler(svc))

			r.Put("/grid", setDraftHandler(svc))
			r.Post("/analyze", analyzeHandler(svc))
			r.Get("/grid", gridHandler)
			r.Get("/grid/mosaic.png", mosaicHandler(svc))

			r.Get("/cells/{address}", cellHandler(svc))
			r.Get("/cells/{address}/image.png", cellImageHandler(svc))
			r.Get("/cells/{address}/swatch.png", cellSwatchHandler(svc))

			r.Get("/report", reportHandler(svc))
			r.Get("/report.csv", reportCSVHandler(svc))
		})
	})

	return r
}

// Context key for the resolved session
type ctxKey string

const sessionKey ctxKey = "session"

// sessionMiddleware resolves the session from URL and injects it into context.
func sessionMiddleware(svc *service.AnalysisService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "session")
			sess, err := svc.Session(id)
			if err != nil {
				http.Error(w, "session not found: "+id, http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSession(r *http.Request) *session.Session {
	if sess, ok := r.Context().Value(sessionKey).(*session.Session); ok {
		return sess
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoImage), errors.Is(err, session.ErrNotAnalyzed):
		return http.StatusConflict
	case grid.IsValidation(err), errors.Is(err, hexcolor.ErrInvalidHex):
		return http.StatusBadRequest
	case errors.Is(err, imageio.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imageio.ErrUnsupportedFormat), errors.Is(err, imageio.ErrEmptyImage),
		errors.Is(err, imageio.ErrCorruptImage):
		return http.StatusUnsupportedMediaType
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Write(data)
}

func statsHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Stats())
	}
}

// inkHandler converts a single colour: GET /api/ink?hex=%23rrggbb
func inkHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hex := strings.TrimSpace(r.URL.Query().Get("hex"))
		if hex == "" {
			http.Error(w, "missing required query param: hex", http.StatusBadRequest)
			return
		}
		if !strings.HasPrefix(hex, "#") {
			hex = "#" + hex
		}
		mix, err := svc.Ink(hex)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"hex": strings.ToLower(hex),
			"ink": mix,
		})
	}
}

func createSessionHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, svc.CreateSession())
	}
}

func sessionStateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, getSession(r).State())
}

func deleteSessionHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteSession(getSession(r).ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// uploadImageHandler accepts either a multipart form with an "image" file
// field or the raw image bytes as the request body.
func uploadImageHandler(svc *service.AnalysisService, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := getSession(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		var (
			src  io.ReadSeeker
			size int64
		)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxBytes); err != nil {
				if statusFor(err) == http.StatusRequestEntityTooLarge {
					writeError(w, err)
					return
				}
				http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
				return
			}
			file, header, err := r.FormFile("image")
			if err != nil {
				http.Error(w, "missing form file: image", http.StatusBadRequest)
				return
			}
			defer file.Close()
			src, size = file, header.Size
		} else {
			data, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, err)
				return
			}
			if len(data) == 0 {
				http.Error(w, "empty request body", http.StatusBadRequest)
				return
			}
			src, size = bytes.NewReader(data), int64(len(data))
		}

		state, err := svc.UploadImage(sess, src, size)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func overlayHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Overlay(getSession(r))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(data)
	}
}

func setDraftHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec grid.Spec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		state, err := svc.SetDraft(getSession(r), spec)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// gridResponse is the committed grid of a session.
type gridResponse struct {
	Generation uint64          `json:"generation"`
	Cols       int             `json:"cols"`
	Rows       int             `json:"rows"`
	Colors     *grid.ColorGrid `json:"colors"`
}

func newGridResponse(a *session.Analysis) gridResponse {
	return gridResponse{
		Generation: a.Generation,
		Cols:       a.Spec.Cols,
		Rows:       a.Spec.Rows,
		Colors:     a.Grid,
	}
}

func analyzeHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Analyze(getSession(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newGridResponse(a))
	}
}

func gridHandler(w http.ResponseWriter, r *http.Request) {
	a, err := getSession(r).Analysis()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGridResponse(a))
}

func mosaicHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Mosaic(getSession(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func cellHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cell, err := svc.Cell(getSession(r), chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cell)
	}
}

func cellImageHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.CellImage(getSession(r), chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func cellSwatchHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.CellSwatch(getSession(r), chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, err)
			return
		}
		writePNG(w, data)
	}
}

func reportHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.Report(getSession(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"records": records,
		})
	}
}

func reportCSVHandler(svc *service.AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.ReportCSV(getSession(r))
		if err != nil {
			writeError(w, err)
			return
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename})
		if disposition != "" {
			w.Header().Set("Content-Disposition", disposition)
		} else {
			w.Header().Set("Content-Disposition", "attachment")
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write(data)
	}
}
