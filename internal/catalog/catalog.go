// Package catalog is the mutation surface of the data catalog. Each method
// validates its input, gates on the caller's session, and composes backend
// writes, link replacement and category handling so that no entity is ever
// left pointing at something that does not exist.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datacatalog/internal/categories"
	"github.com/mesh-intelligence/datacatalog/internal/links"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// Service applies catalog mutations through a persistence backend.
type Service struct {
	backend    types.Persistence
	links      *links.Manager
	categories *categories.Manager
	logger     *zap.Logger
}

type options struct {
	strictCategoryDelete bool
	logger               *zap.Logger
}

// Option configures a Service.
type Option func(*options)

// WithStrictCategoryDelete rejects deleting a category that data types
// still use, instead of moving them to Uncategorized.
func WithStrictCategoryDelete() Option {
	return func(o *options) { o.strictCategoryDelete = true }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a Service writing through backend.
func New(backend types.Persistence, opts ...Option) *Service {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Service{
		backend:    backend,
		links:      links.New(backend),
		categories: categories.New(backend, categories.WithStrictDelete(o.strictCategoryDelete)),
		logger:     o.logger,
	}
}

func requireSession(ctx context.Context) (types.Session, error) {
	s, ok := types.SessionFrom(ctx)
	if !ok {
		return types.Session{}, types.ErrNoSession
	}
	return s, nil
}

// AddDataType creates a data type and links it to datasetIDs. Link targets
// are checked before the create; links are written only after the create
// has committed. An empty category means Uncategorized.
func (s *Service) AddDataType(ctx context.Context, dt *types.DataType, datasetIDs []string) (string, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return "", err
	}
	if dt == nil {
		return "", types.ErrInvalidData
	}
	if err := s.prepareDataType(ctx, dt); err != nil {
		return "", err
	}
	targets := links.Dedupe(datasetIDs)
	if err := s.links.ValidateTargets(ctx, targets, types.SideDataType); err != nil {
		return "", err
	}

	id, err := s.backend.Create(ctx, types.CollectionDataTypes, dt)
	if err != nil {
		return "", err
	}
	if len(targets) > 0 {
		if err := s.links.Replace(ctx, id, targets, types.SideDataType); err != nil {
			return id, fmt.Errorf("data type %s created, linking datasets: %w", id, err)
		}
	}
	s.logger.Info("data type added",
		zap.String("user", sess.User),
		zap.String("id", id),
		zap.Int("datasets", len(targets)))
	return id, nil
}

// UpdateDataType overwrites the mutable fields of dt. A nil datasetIDs
// leaves the links alone; any other value, including empty, becomes the
// complete link set.
func (s *Service) UpdateDataType(ctx context.Context, dt *types.DataType, datasetIDs []string) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if dt == nil || dt.ID == "" {
		return types.ErrInvalidID
	}
	if err := s.requireExists(ctx, types.CollectionDataTypes, dt.ID); err != nil {
		return err
	}
	if err := s.prepareDataType(ctx, dt); err != nil {
		return err
	}
	var targets []string
	if datasetIDs != nil {
		targets = links.Dedupe(datasetIDs)
		if err := s.links.ValidateTargets(ctx, targets, types.SideDataType); err != nil {
			return err
		}
	}

	if err := s.backend.Update(ctx, types.CollectionDataTypes, dt.ID, dt.Fields()); err != nil {
		return err
	}
	if datasetIDs != nil {
		if err := s.links.Replace(ctx, dt.ID, targets, types.SideDataType); err != nil {
			return fmt.Errorf("data type %s updated, linking datasets: %w", dt.ID, err)
		}
	}
	s.logger.Info("data type updated", zap.String("user", sess.User), zap.String("id", dt.ID))
	return nil
}

// DeleteDataType removes a data type and all of its links in one batch.
func (s *Service) DeleteDataType(ctx context.Context, id string) error {
	return s.deleteLinked(ctx, id, types.SideDataType)
}

// AddDataset creates a dataset and links it to dataTypeIDs.
func (s *Service) AddDataset(ctx context.Context, ds *types.Dataset, dataTypeIDs []string) (string, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return "", err
	}
	if ds == nil {
		return "", types.ErrInvalidData
	}
	prepareDataset(ds)
	if err := types.ValidateEntity(ds); err != nil {
		return "", err
	}
	targets := links.Dedupe(dataTypeIDs)
	if err := s.links.ValidateTargets(ctx, targets, types.SideDataset); err != nil {
		return "", err
	}

	id, err := s.backend.Create(ctx, types.CollectionDatasets, ds)
	if err != nil {
		return "", err
	}
	if len(targets) > 0 {
		if err := s.links.Replace(ctx, id, targets, types.SideDataset); err != nil {
			return id, fmt.Errorf("dataset %s created, linking data types: %w", id, err)
		}
	}
	s.logger.Info("dataset added",
		zap.String("user", sess.User),
		zap.String("id", id),
		zap.Int("data_types", len(targets)))
	return id, nil
}

// UpdateDataset overwrites the mutable fields of ds. dataTypeIDs follows
// the same nil rule as UpdateDataType.
func (s *Service) UpdateDataset(ctx context.Context, ds *types.Dataset, dataTypeIDs []string) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if ds == nil || ds.ID == "" {
		return types.ErrInvalidID
	}
	if err := s.requireExists(ctx, types.CollectionDatasets, ds.ID); err != nil {
		return err
	}
	prepareDataset(ds)
	if err := types.ValidateEntity(ds); err != nil {
		return err
	}
	var targets []string
	if dataTypeIDs != nil {
		targets = links.Dedupe(dataTypeIDs)
		if err := s.links.ValidateTargets(ctx, targets, types.SideDataset); err != nil {
			return err
		}
	}

	if err := s.backend.Update(ctx, types.CollectionDatasets, ds.ID, ds.Fields()); err != nil {
		return err
	}
	if dataTypeIDs != nil {
		if err := s.links.Replace(ctx, ds.ID, targets, types.SideDataset); err != nil {
			return fmt.Errorf("dataset %s updated, linking data types: %w", ds.ID, err)
		}
	}
	s.logger.Info("dataset updated", zap.String("user", sess.User), zap.String("id", ds.ID))
	return nil
}

// DeleteDataset removes a dataset and all of its links in one batch.
func (s *Service) DeleteDataset(ctx context.Context, id string) error {
	return s.deleteLinked(ctx, id, types.SideDataset)
}

// ReplaceLinks makes linkedIDs the complete link set of itemID on side.
func (s *Service) ReplaceLinks(ctx context.Context, itemID string, linkedIDs []string, side types.Side) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if err := s.links.Replace(ctx, itemID, linkedIDs, side); err != nil {
		return err
	}
	s.logger.Info("links replaced",
		zap.String("user", sess.User),
		zap.String("id", itemID),
		zap.String("side", string(side)))
	return nil
}

// AddCategory creates a category.
func (s *Service) AddCategory(ctx context.Context, c *types.Category) (string, error) {
	sess, err := requireSession(ctx)
	if err != nil {
		return "", err
	}
	id, err := s.categories.Add(ctx, c)
	if err != nil {
		return "", err
	}
	s.logger.Info("category added", zap.String("user", sess.User), zap.String("id", id))
	return id, nil
}

// UpdateCategory renames or re-describes a category. Data types follow a
// rename in the same batch.
func (s *Service) UpdateCategory(ctx context.Context, c *types.Category) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return err
	}
	s.logger.Info("category updated", zap.String("user", sess.User), zap.String("id", c.ID))
	return nil
}

// DeleteCategory removes a category, moving its data types to
// Uncategorized unless strict deletion is configured.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("user", sess.User), zap.String("id", id))
	return nil
}

func (s *Service) deleteLinked(ctx context.Context, id string, side types.Side) error {
	sess, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}
	if err := s.requireExists(ctx, side.Collection(), id); err != nil {
		return err
	}
	ops, err := s.links.CleanupOps(ctx, id, side)
	if err != nil {
		return err
	}
	ops = append(ops, types.DeleteOp(side.Collection(), id))
	if err := s.backend.Batch(ctx, ops); err != nil {
		return err
	}
	s.logger.Info("entity deleted",
		zap.String("user", sess.User),
		zap.String("collection", side.Collection()),
		zap.String("id", id),
		zap.Int("links", len(ops)-1))
	return nil
}

func (s *Service) requireExists(ctx context.Context, collection, id string) error {
	found, err := s.backend.QueryWhere(ctx, collection, "id", id)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("%w: %s %q", types.ErrNotFound, collection, id)
	}
	return nil
}

// prepareDataType trims, defaults, resolves the category and validates.
func (s *Service) prepareDataType(ctx context.Context, dt *types.DataType) error {
	dt.Name = strings.TrimSpace(dt.Name)
	dt.ApplyDefaults()
	if err := types.ValidateEntity(dt); err != nil {
		return err
	}
	name, err := s.categories.Resolve(ctx, dt.Category)
	if err != nil {
		return err
	}
	dt.Category = name
	return nil
}

func prepareDataset(ds *types.Dataset) {
	ds.Name = strings.TrimSpace(ds.Name)
	ds.SourceURL = strings.TrimSpace(ds.SourceURL)
}
