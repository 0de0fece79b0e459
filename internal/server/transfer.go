package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datacatalog/internal/transfer"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

func (s *CatalogServer) export(w http.ResponseWriter, r *http.Request) {
	doc := s.transfer.Export()
	stamp := doc.ExportedAt.Format("20060102-150405")

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="catalog-%s.json"`, stamp))
		if err := transfer.WriteJSON(w, doc); err != nil {
			s.logger.Error("writing json export", zap.Error(err))
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="catalog-%s.csv"`, stamp))
		if err := transfer.WriteCSV(w, doc); err != nil {
			s.logger.Error("writing csv export", zap.Error(err))
		}
	default:
		s.sendError(w, r, fmt.Errorf("%w: unknown export format %q", types.ErrInvalidData, format))
	}
}

func (s *CatalogServer) importCatalog(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Header.Get(HeaderConfirmReplace), "true") {
		s.sendError(w, r, fmt.Errorf("%w: import replaces the whole catalog; set %s: true to confirm",
			types.ErrInvalidPayload, HeaderConfirmReplace))
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.sendError(w, r, fmt.Errorf("%w: reading body: %v", types.ErrInvalidPayload, err))
		return
	}
	res, err := s.transfer.Import(r.Context(), payload)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, res)
}
