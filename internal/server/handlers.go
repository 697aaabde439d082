package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"finance-insights/internal/models"
	"finance-insights/internal/parsers"
	"finance-insights/internal/service"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Category   errors.ErrorCategory `json:"category"`
	Code       errors.ErrorCode     `json:"code"`
	Message    string               `json:"message"`
	Suggestion string               `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an application error to an HTTP status
func statusFor(appErr *errors.AppError) int {
	switch appErr.Category {
	case errors.CategoryValidation, errors.CategoryParse:
		return http.StatusBadRequest
	case errors.CategoryFile:
		if appErr.Code == errors.CodeFileNotFound {
			return http.StatusNotFound
		}
	case errors.CategoryInternal:
		if appErr.Code == errors.CodeCancelled {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "request failed")
	status := statusFor(appErr)

	entry := s.logger.WithError(err).WithFields(logger.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"category":   appErr.Category,
		"code":       appErr.Code,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	writeJSON(w, status, map[string]errorBody{"error": {
		Category:   appErr.Category,
		Code:       appErr.Code,
		Message:    appErr.Message,
		Suggestion: appErr.Suggestion,
	}})
}

func parseWindow(r *http.Request) (service.Window, error) {
	var w service.Window
	q := r.URL.Query()
	if from := q.Get("from"); from != "" {
		t, err := models.ParseDate(from)
		if err != nil {
			return w, errors.ValidationError(errors.CodeInvalidDate, "from", from, err).
				WithSuggestion("use YYYY-MM-DD")
		}
		w.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := models.ParseDate(to)
		if err != nil {
			return w, errors.ValidationError(errors.CodeInvalidDate, "to", to, err).
				WithSuggestion("use YYYY-MM-DD")
		}
		w.To = &t
	}
	return w, nil
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr
		}
		return errors.ValidationError(errors.CodeInvalidFormat, "body", "", err).
			WithSuggestion("send a single JSON object")
	}
	return nil
}

// windowed adapts a read operation taking only a window
func windowed[T any](s *Server, op func(*http.Request, service.Window) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		win, err := parseWindow(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		result, err := op(r, win)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) ([]models.Transaction, error) {
		ds, err := s.svc.Snapshot(r.Context(), win)
		if err != nil {
			return nil, err
		}
		if ds.Transactions == nil {
			return []models.Transaction{}, nil
		}
		return ds.Transactions, nil
	})(w, r)
}

func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.HealthScore(r.Context(), win)
	})(w, r)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	horizon := 0
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, errors.ValidationError(errors.CodeInvalidData, "horizon", raw, err).
				WithSuggestion("horizon must be a whole number of months"))
			return
		}
		horizon = n
	}

	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.Forecast(r.Context(), win, horizon)
	})(w, r)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.Anomalies(r.Context(), win)
	})(w, r)
}

func (s *Server) handleBudgetRecommendations(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.BudgetRecommendations(r.Context(), win)
	})(w, r)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.SpendingPatterns(r.Context(), win)
	})(w, r)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.Progress(r.Context(), win)
	})(w, r)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	windowed(s, func(r *http.Request, win service.Window) (interface{}, error) {
		return s.svc.Insights(r.Context(), win)
	})(w, r)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := s.decodeBody(w, r, &tx); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.svc.AddTransaction(r.Context(), tx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	var b models.Budget
	if err := s.decodeBody(w, r, &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.svc.AddBudget(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var g models.Goal
	if err := s.decodeBody(w, r, &g); err != nil {
		s.writeError(w, r, err)
		return
	}
	added, err := s.svc.AddGoal(r.Context(), g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

type categorizeRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Categorize(r.Context(), req.Description, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImport reads a CSV export from the request body. The layout query
// parameter selects a predefined column layout.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	layout := r.URL.Query().Get("layout")
	config := parsers.GetCSVConfig(layout)
	if config == nil {
		names := make([]string, 0, 2)
		for _, c := range parsers.ListCSVConfigs() {
			names = append(names, c.Name)
		}
		s.writeError(w, r, errors.ValidationError(errors.CodeInvalidData, "layout", layout, nil).
			WithSuggestion(fmt.Sprintf("use one of: %s", strings.Join(names, ", "))))
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	result, err := s.svc.ImportCSV(r.Context(), body, source, config)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
