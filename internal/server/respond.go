package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

type errorRsp struct {
	Error string `json:"error"`
}

type idRsp struct {
	ID string `json:"id"`
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *CatalogServer) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	sendJSON(w, status, errorRsp{Error: err.Error()})
}

// statusFor maps catalog errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrDuplicateName),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrCategoryInUse),
		errors.Is(err, types.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidCategory),
		errors.Is(err, types.ErrInvalidField),
		errors.Is(err, types.ErrInvalidSide),
		errors.Is(err, types.ErrInvalidPayload),
		errors.Is(err, types.ErrProtectedCategory),
		errors.Is(err, types.ErrDanglingLink):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", types.ErrInvalidData, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return nil
}

func notFound(collection, id string) error {
	return fmt.Errorf("%w: %s %q", types.ErrNotFound, collection, id)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
