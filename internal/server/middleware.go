package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vermu490/crypto-dashboard/internal/model"
	"github.com/vermu490/crypto-dashboard/internal/recorder"
)

const requestIDHeader = "X-Request-ID"

type infoKey struct{}

// requestInfo is filled in by handlers and read back by the middleware once the response is written.
type requestInfo struct {
	noted bool
	req   model.ChartRequest
	bars  int
	err   error
}

func note(ctx context.Context, req model.ChartRequest, bars int, err error) {
	if info, ok := ctx.Value(infoKey{}).(*requestInfo); ok {
		info.noted, info.req, info.bars, info.err = true, req, bars, err
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// routeLabel turns a mux pattern such as "GET /{$}" into a low-cardinality metric label.
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	return strings.TrimSuffix(pattern, "{$}")
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		info := &requestInfo{}
		r = r.WithContext(context.WithValue(r.Context(), infoKey{}, info))
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.log.Error().Str("request_id", id).Interface("panic", p).Bytes("stack", debug.Stack()).Msg("handler panicked")
				if !sw.wrote {
					http.Error(sw, "internal server error", http.StatusInternalServerError)
				}
				sw.status = http.StatusInternalServerError
			}

			elapsed := time.Since(started)
			route := routeLabel(r.Pattern)
			s.Metrics.ObserveRequest(route, sw.status, elapsed)

			evt := s.log.Info()
			if route == "/healthz" || route == "/metrics" {
				evt = s.log.Debug()
			}
			evt.Str("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("elapsed", elapsed).
				Msg("request")

			if info.noted {
				rec := &recorder.RequestEvent{
					RequestID: id,
					Route:     route,
					Symbol:    info.req.Symbol,
					Start:     info.req.Start,
					End:       info.req.End,
					Bars:      info.bars,
					Status:    sw.status,
					Duration:  elapsed,
				}
				if info.err != nil {
					rec.Err = info.err.Error()
				}
				if err := s.Recorder.RecordRequest(rec); err != nil {
					s.log.Error().Err(err).Str("request_id", id).Msg("record request")
				}
			}
		}()

		next.ServeHTTP(sw, r)
	})
}
