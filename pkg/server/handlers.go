package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/store"
)

// maxBodyBytes caps API request bodies.
const maxBodyBytes = 1 << 16

type estimateRequest struct {
	Domain string `json:"domain" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, render.PageIndex, nil)
}

func (s *Server) handleEstimateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	raw := strings.TrimSpace(r.PostForm.Get("domain"))
	if raw == "" {
		s.metrics.estimations.WithLabelValues(outcomeRejected).Inc()
		s.renderError(w, r, http.StatusBadRequest, s.t(r, "error.domain_blank", "Please enter a domain"), raw)
		return
	}

	res, status, err := s.estimate(r, raw)
	if err != nil {
		msg := s.t(r, "error.estimate", "Estimation failed")
		if status == http.StatusBadRequest {
			msg = s.t(r, "error.domain_blank", "Please enter a domain")
		}
		s.renderError(w, r, status, msg, raw)
		return
	}
	s.renderPage(w, r, http.StatusOK, render.PageResult, map[string]any{"result": res})
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	q := historyQuery(r)
	records, err := s.history.History(r.Context(), q)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read history.")
		s.renderError(w, r, http.StatusInternalServerError, s.t(r, "error.history", "Could not load history"), "")
		return
	}
	s.renderPage(w, r, http.StatusOK, render.PageHistory, map[string]any{
		"records": records,
		"filter":  q.Domain,
	})
}

func (s *Server) handleEstimateAPI(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	req.Domain = strings.TrimSpace(req.Domain)
	if err := s.validate.Struct(req); err != nil {
		s.metrics.estimations.WithLabelValues(outcomeRejected).Inc()
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return
	}

	res, status, err := s.estimate(r, req.Domain)
	if err != nil {
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistoryAPI(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.History(r.Context(), historyQuery(r))
	if err != nil {
		s.logger.WithError(err).Error("Failed to read history.")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load history"})
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.openapi)
}

func (s *Server) handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(s.script)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// estimate values raw, records the result and reports the HTTP status for a
// failure. History write failures are logged only.
func (s *Server) estimate(r *http.Request, raw string) (*estimate.Result, int, error) {
	ctx := r.Context()
	start := s.clock.Now()
	res, err := s.estimator.Estimate(ctx, raw)
	s.metrics.duration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrEmpty) || errors.Is(err, domain.ErrSingleLabel) {
			s.metrics.estimations.WithLabelValues(outcomeRejected).Inc()
			return nil, http.StatusBadRequest, err
		}
		s.metrics.estimations.WithLabelValues(outcomeFailed).Inc()
		s.logger.WithError(err).WithField("domain", raw).Error("Failed to estimate domain.")
		return nil, http.StatusInternalServerError, err
	}
	s.metrics.estimations.WithLabelValues(outcomeOK).Inc()

	if _, err := s.history.Save(ctx, res); err != nil {
		s.metrics.saveFailures.Inc()
		s.logger.WithError(err).WithField("domain", res.Domain).Warn("Failed to save history.")
	}
	return res, http.StatusOK, nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page render.Page, data map[string]any) {
	out, err := s.renderer.Render(r.Context(), page, data, s.renderOptions(r))
	if err != nil {
		s.logger.WithError(err).WithField("page", page).Error("Failed to render page.")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message, value string) {
	s.renderPage(w, r, status, render.PageError, map[string]any{
		"status":  status,
		"message": message,
		"domain":  value,
	})
}

func (s *Server) renderOptions(r *http.Request) render.RenderOptions {
	return render.RenderOptions{
		Locale:       s.locale(r),
		Translator:   s.translator,
		ThemeVariant: r.URL.Query().Get("theme"),
	}
}

// locale honours ?lang= and falls back to the configured locale.
func (s *Server) locale(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return lang
	}
	return s.guard.Locale
}

func (s *Server) t(r *http.Request, key, fallback string) string {
	return render.Translate(s.locale(r), key, fallback, s.translator, nil)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write response.")
	}
}

func historyQuery(r *http.Request) store.Query {
	q := store.Query{Domain: strings.TrimSpace(r.URL.Query().Get("domain"))}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		q.Limit = limit
	}
	return q
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return strings.ToLower(verrs[0].Field()) + " is " + verrs[0].Tag()
	}
	return err.Error()
}
