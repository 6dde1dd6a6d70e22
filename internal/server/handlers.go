package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vermu490/crypto-dashboard/internal/calculator"
	"github.com/vermu490/crypto-dashboard/internal/chart"
	"github.com/vermu490/crypto-dashboard/internal/collector"
	"github.com/vermu490/crypto-dashboard/internal/export"
	"github.com/vermu490/crypto-dashboard/internal/model"
)

const maxFormBytes = 64 << 10

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^=._-]{1,20}$`)

// badRequest marks user input that cannot be turned into a ChartRequest.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// parseRequest builds a ChartRequest from raw form or query values. Blank values take the defaults;
// a blank end date means today, excluded.
func (s *Server) parseRequest(symbol, start, end string) (model.ChartRequest, error) {
	req := model.DefaultRequest(s.opts.DefaultSymbol, s.opts.DefaultStart, s.now())

	if sym := strings.ToUpper(strings.TrimSpace(symbol)); sym != "" {
		if !symbolPattern.MatchString(sym) {
			return req, &badRequest{fmt.Sprintf("invalid symbol %q", symbol)}
		}
		req.Symbol = sym
	}
	if v := strings.TrimSpace(start); v != "" {
		t, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return req, &badRequest{fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", v)}
		}
		req.Start = t
	}
	if v := strings.TrimSpace(end); v != "" {
		t, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return req, &badRequest{fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", v)}
		}
		req.End = t
	}
	if !req.Start.Before(req.End) {
		return req, &badRequest{"start date must be before end date"}
	}
	return req, nil
}

func (s *Server) isDefault(req model.ChartRequest) bool {
	def := model.DefaultRequest(s.opts.DefaultSymbol, s.opts.DefaultStart, s.now())
	return req.Symbol == def.Symbol && req.Start.Equal(def.Start) && req.End.Equal(def.End)
}

// errorStatus maps a request failure to its HTTP status and a message safe to show to the user.
func errorStatus(req model.ChartRequest, err error) (int, string) {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, br.msg
	case errors.Is(err, calculator.ErrEmptySeries):
		return http.StatusUnprocessableEntity, fmt.Sprintf("No price data for %s between %s and %s.",
			req.Symbol, req.Start.Format(model.DateLayout), req.End.Format(model.DateLayout))
	case calculator.IsDataError(err):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Price data for %s is unusable: %v", req.Symbol, err)
	case errors.Is(err, collector.ErrSymbolNotFound):
		return http.StatusNotFound, fmt.Sprintf("Unknown symbol %s.", req.Symbol)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "The data source timed out, try again later."
	default:
		return http.StatusBadGateway, "Could not fetch price data, try again later."
	}
}

func downloadURL(req model.ChartRequest) string {
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("start", req.Start.Format(model.DateLayout))
	q.Set("end", req.End.Format(model.DateLayout))
	return "/download?" + q.Encode()
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var symbol, start, end string
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			s.renderPage(w, http.StatusBadRequest, chart.PageData{Error: "could not read form"})
			return
		}
		symbol, start, end = r.PostFormValue("crypto_name"), r.PostFormValue("start_date"), r.PostFormValue("end_date")
	} else {
		q := r.URL.Query()
		symbol, start, end = q.Get("symbol"), q.Get("start"), q.Get("end")
	}

	req, err := s.parseRequest(symbol, start, end)
	data := chart.PageData{
		Symbol:      req.Symbol,
		Start:       req.Start.Format(model.DateLayout),
		End:         req.End.Format(model.DateLayout),
		DownloadURL: downloadURL(req),
	}
	if err != nil {
		// keep what the user typed so it can be corrected
		data.Symbol, data.Start, data.End = symbol, start, end
		note(r.Context(), req, 0, err)
		status, msg := errorStatus(req, err)
		data.Error = msg
		s.renderPage(w, status, data)
		return
	}

	a, err := s.Collector.Analyze(r.Context(), req)
	if err != nil {
		note(r.Context(), req, 0, err)
		status, msg := errorStatus(req, err)
		data.Error = msg
		s.renderPage(w, status, data)
		return
	}
	note(r.Context(), req, a.Series.Len(), nil)

	data.Warnings = a.Warnings
	if err := data.WithFigure(chart.BuildFigure(a)); err != nil {
		s.log.Error().Err(err).Msg("encode figure")
		data.Error = "Could not render the chart."
		s.renderPage(w, http.StatusInternalServerError, data)
		return
	}
	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data chart.PageData) {
	var buf bytes.Buffer
	if err := chart.Render(&buf, data); err != nil {
		s.log.Error().Err(err).Msg("render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := s.parseRequest(q.Get("symbol"), q.Get("start"), q.Get("end"))
	if err != nil {
		s.downloadError(w, r, req, err)
		return
	}
	series, err := s.Collector.Series(r.Context(), req)
	if err == nil {
		err = calculator.ValidateSeries(series)
	}
	if err != nil {
		s.downloadError(w, r, req, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, series); err != nil {
		s.log.Error().Err(err).Str("key", req.Key()).Msg("write csv")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	note(r.Context(), req, series.Len(), nil)

	name := export.FileName(req)
	if s.isDefault(req) {
		name = export.DefaultFileName
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Write(buf.Bytes())
}

func (s *Server) downloadError(w http.ResponseWriter, r *http.Request, req model.ChartRequest, err error) {
	note(r.Context(), req, 0, err)
	status, msg := errorStatus(req, err)
	http.Error(w, msg, status)
}

type chartResponse struct {
	Request  model.ChartRequest `json:"request"`
	Figure   chart.Figure       `json:"figure"`
	Warnings []string           `json:"warnings"`
}

func (s *Server) handleChartAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := s.parseRequest(q.Get("symbol"), q.Get("start"), q.Get("end"))
	if err != nil {
		note(r.Context(), req, 0, err)
		status, msg := errorStatus(req, err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	a, err := s.Collector.Analyze(r.Context(), req)
	if err != nil {
		note(r.Context(), req, 0, err)
		status, msg := errorStatus(req, err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	note(r.Context(), req, a.Series.Len(), nil)

	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, chartResponse{Request: req, Figure: chart.BuildFigure(a), Warnings: warnings})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"data_source": s.Collector.Fetcher.Name(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
