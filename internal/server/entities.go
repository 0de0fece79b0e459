package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// dataTypeReq is the body of POST and PUT /datatypes. An absent
// dataset_ids leaves links unchanged on update.
type dataTypeReq struct {
	types.DataType
	DatasetIDs *[]string `json:"dataset_ids"`
}

type datasetReq struct {
	types.Dataset
	DataTypeIDs *[]string `json:"data_type_ids"`
}

type linksReq struct {
	IDs []string `json:"ids"`
}

type dataTypeRsp struct {
	types.DataType
	Datasets []types.Dataset `json:"datasets"`
}

type datasetRsp struct {
	types.Dataset
	DataTypes []types.DataType `json:"data_types"`
}

func idList(p *[]string) []string {
	if p == nil {
		return nil
	}
	if *p == nil {
		return []string{}
	}
	return *p
}

func (s *CatalogServer) listDataTypes(w http.ResponseWriter, r *http.Request) {
	if c := r.URL.Query().Get("category"); c != "" {
		sendJSON(w, http.StatusOK, nonNil(s.store.DataTypesInCategory(c)))
		return
	}
	sendJSON(w, http.StatusOK, nonNil(s.store.DataTypes()))
}

func (s *CatalogServer) getDataType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dt, ok := s.store.DataTypeByID(id)
	if !ok {
		s.sendError(w, r, notFound(types.CollectionDataTypes, id))
		return
	}
	sendJSON(w, http.StatusOK, dataTypeRsp{DataType: dt, Datasets: s.store.DatasetsForDataType(id)})
}

func (s *CatalogServer) createDataType(w http.ResponseWriter, r *http.Request) {
	var req dataTypeReq
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	id, err := s.catalog.AddDataType(r.Context(), &req.DataType, idList(req.DatasetIDs))
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, idRsp{ID: id})
}

func (s *CatalogServer) updateDataType(w http.ResponseWriter, r *http.Request) {
	var req dataTypeReq
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	if err := s.catalog.UpdateDataType(r.Context(), &req.DataType, idList(req.DatasetIDs)); err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, idRsp{ID: req.ID})
}

func (s *CatalogServer) deleteDataType(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteDataType(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *CatalogServer) listDatasetsForDataType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.DataTypeByID(id); !ok {
		s.sendError(w, r, notFound(types.CollectionDataTypes, id))
		return
	}
	sendJSON(w, http.StatusOK, s.store.DatasetsForDataType(id))
}

func (s *CatalogServer) listDatasets(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, nonNil(s.store.Datasets()))
}

func (s *CatalogServer) getDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, ok := s.store.DatasetByID(id)
	if !ok {
		s.sendError(w, r, notFound(types.CollectionDatasets, id))
		return
	}
	sendJSON(w, http.StatusOK, datasetRsp{Dataset: ds, DataTypes: s.store.DataTypesForDataset(id)})
}

func (s *CatalogServer) createDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetReq
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	id, err := s.catalog.AddDataset(r.Context(), &req.Dataset, idList(req.DataTypeIDs))
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, idRsp{ID: id})
}

func (s *CatalogServer) updateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetReq
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	if err := s.catalog.UpdateDataset(r.Context(), &req.Dataset, idList(req.DataTypeIDs)); err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, idRsp{ID: req.ID})
}

func (s *CatalogServer) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteDataset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *CatalogServer) listDataTypesForDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.DatasetByID(id); !ok {
		s.sendError(w, r, notFound(types.CollectionDatasets, id))
		return
	}
	sendJSON(w, http.StatusOK, s.store.DataTypesForDataset(id))
}

func (s *CatalogServer) replaceLinks(side types.Side) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linksReq
		if err := decodeBody(r, &req); err != nil {
			s.sendError(w, r, err)
			return
		}
		id := chi.URLParam(r, "id")
		if err := s.catalog.ReplaceLinks(r.Context(), id, req.IDs, side); err != nil {
			s.sendError(w, r, err)
			return
		}
		sendJSON(w, http.StatusOK, idRsp{ID: id})
	}
}

func (s *CatalogServer) listCategories(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.store.Categories())
}

func (s *CatalogServer) createCategory(w http.ResponseWriter, r *http.Request) {
	var c types.Category
	if err := decodeBody(r, &c); err != nil {
		s.sendError(w, r, err)
		return
	}
	c.ID = ""
	id, err := s.catalog.AddCategory(r.Context(), &c)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, idRsp{ID: id})
}

func (s *CatalogServer) updateCategory(w http.ResponseWriter, r *http.Request) {
	var c types.Category
	if err := decodeBody(r, &c); err != nil {
		s.sendError(w, r, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := s.catalog.UpdateCategory(r.Context(), &c); err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, idRsp{ID: c.ID})
}

func (s *CatalogServer) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
