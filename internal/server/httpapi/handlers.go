package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/server/services"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.users.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
			return
		}
		s.log.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.UserID,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshExpired):
			writeError(w, http.StatusUnauthorized, common.ErrRefreshExpired.Error())
		case errors.Is(err, common.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, common.ErrUnauthorized.Error())
		default:
			s.log.Error(r.Context(), "refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.UserID,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	id := r.PathValue("id")

	doc, err := s.documents.Get(r.Context(), userIDFrom(r.Context()), kind, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, common.ErrNotFound.Error())
			return
		}
		s.log.Error(r.Context(), "get document failed", "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSetDocument(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	id := r.PathValue("id")

	var req struct {
		Body json.RawMessage `json:"body"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.documents.Set(r.Context(), userIDFrom(r.Context()), kind, id, req.Body); err != nil {
		s.log.Error(r.Context(), "set document failed", "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBatchCommit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ops []services.BatchOp `json:"ops"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.Ops) > common.MaxBatchOps {
		writeError(w, http.StatusBadRequest, "batch exceeds operation ceiling")
		return
	}

	if err := s.documents.BatchCommit(r.Context(), userIDFrom(r.Context()), req.Ops); err != nil {
		s.log.Error(r.Context(), "batch commit failed", "error", err, "ops", len(req.Ops))
		writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryDocuments(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	field := r.URL.Query().Get("field")
	value := r.URL.Query().Get("value")
	if field == "" {
		writeError(w, http.StatusBadRequest, "field is required")
		return
	}

	docs, err := s.documents.Query(r.Context(), userIDFrom(r.Context()), kind, field, value)
	if err != nil {
		s.log.Error(r.Context(), "query documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrInternal.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}
