package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/online"
	"github.com/hyperjump/bizsearch/internal/ranking"
	"github.com/hyperjump/bizsearch/internal/storage"
	"go.uber.org/zap"
)

// UnavailableMessage is the only detail a client sees when a collaborator fails.
const UnavailableMessage = "search is temporarily unavailable"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BusinessResponse is the body of GET /api/v1/businesses/{id}.
type BusinessResponse struct {
	Business    *models.BusinessRecord `json:"business"`
	Suggestions []string               `json:"suggestions"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Businesses     int64             `json:"businesses"`
	StorageBytes   int64             `json:"storage_bytes"`
	Model          ranking.ModelInfo `json:"model"`
	MissingQueries int               `json:"missing_queries"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", q.Query), zap.Int("limit", q.Limit))
	response, err := s.engine.Search(r.Context(), &q)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, UnavailableMessage)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid business id")
		return
	}
	b, err := s.catalog.GetBusiness(r.Context(), id)
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, BusinessResponse{Business: b, Suggestions: models.UpdateSuggestions(b)})
}

// handleListBusinesses finds a business by phone when ?phone= is given,
// otherwise pages through the catalog with ?offset= and ?limit=.
func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if phone := params.Get("phone"); phone != "" {
		b, err := s.catalog.FindByPhone(r.Context(), phone)
		if err != nil {
			s.respondCatalogError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, BusinessResponse{Business: b, Suggestions: models.UpdateSuggestions(b)})
		return
	}

	offset, err := intParam(params.Get("offset"), 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(params.Get("limit"), defaultPageSize)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	list, err := s.catalog.ListBusinesses(r.Context(), offset, limit)
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}
	if list == nil {
		list = []*models.BusinessRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"businesses": list, "offset": offset, "limit": limit})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.catalog.CountBusinesses(ctx)
	if err != nil {
		s.logger.Error("status: count businesses failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, UnavailableMessage)
		return
	}
	resp := StatusResponse{Businesses: count, Model: s.models.Info()}
	if size, err := s.catalog.SizeBytes(ctx); err == nil {
		resp.StorageBytes = size
	} else {
		s.logger.Warn("status: storage size failed", zap.Error(err))
	}
	if s.missingLogPath != "" {
		entries, err := online.ReadMissingLog(s.missingLogPath)
		if err != nil {
			s.logger.Warn("status: read missing-query log failed", zap.Error(err))
		}
		resp.MissingQueries = len(entries)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "business not found")
		return
	}
	s.logger.Error("catalog request failed", zap.Error(err))
	s.respondError(w, http.StatusServiceUnavailable, UnavailableMessage)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
