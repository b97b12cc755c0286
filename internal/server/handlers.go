package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/dynlayout/pkg/buildinfo"
	"github.com/matzehuels/dynlayout/pkg/errors"
	dynio "github.com/matzehuels/dynlayout/pkg/io"
	"github.com/matzehuels/dynlayout/pkg/pipeline"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

// =============================================================================
// Request / Response Types
// =============================================================================

type layoutRequest struct {
	Graph   json.RawMessage  `json:"graph"`
	Options pipeline.Options `json:"options"`
}

type layoutResponse struct {
	RunID      string            `json:"run_id"`
	GraphHash  string            `json:"graph_hash"`
	CacheHit   bool              `json:"cache_hit"`
	Tau        float64           `json:"tau"`
	DurationMS int64             `json:"duration_ms"`
	Graph      json.RawMessage   `json:"graph"`
	Stats      *stats.Statistics `json:"stats"`
}

type snapshotRequest struct {
	Graph json.RawMessage `json:"graph"`
	pipeline.SnapshotOptions
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// contentTypes maps snapshot formats to response content types.
var contentTypes = map[string]string{
	"dot": "text/vnd.graphviz; charset=utf-8",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
	"png": "image/png",
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	g, err := dynio.UnmarshalDynamic(req.Graph)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Layout(r.Context(), g, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := dynio.MarshalDynamic(res.Graph)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode layout"))
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{
		RunID:      res.RunID,
		GraphHash:  res.GraphHash,
		CacheHit:   res.CacheHit,
		Tau:        res.Tau,
		DurationMS: res.Duration.Milliseconds(),
		Graph:      data,
		Stats:      res.Stats,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	g, err := dynio.UnmarshalDynamic(req.Graph)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := req.SnapshotOptions
	if opts.Format == "" {
		opts.Format = "svg"
	}
	data, hit, err := s.runner.Snapshot(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[opts.Format])
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a size-limited JSON body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: errors.UserMessage(err)}})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidOption, errors.ErrCodeConfiguration:
		return http.StatusBadRequest
	case errors.ErrCodeUndefinedGeometry:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
