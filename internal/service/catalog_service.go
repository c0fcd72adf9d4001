package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clothing-store/internal/apperrors"
	"clothing-store/internal/models"
	"clothing-store/internal/pipeline"
	"clothing-store/internal/store"
	"clothing-store/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EventPublisher announces committed writes.
type EventPublisher interface {
	PublishDocumentChanged(ctx context.Context, eventType, collection, documentID string) error
}

// IdempotencyStore remembers which document a create request produced.
// RememberInsert must be an atomic set-if-absent.
type IdempotencyStore interface {
	LookupInsert(ctx context.Context, collection, key string) (string, error)
	RememberInsert(ctx context.Context, collection, key, id string, ttl time.Duration) (bool, error)
	ForgetInsert(ctx context.Context, collection, key string) error
}

type catalogModel interface {
	ToDocument() map[string]any
}

type referencing interface {
	References() map[string]string
}

// CatalogService handles CRUD for the five storefront collections. Events
// and idempotency keys are optional and best-effort: their failures are
// logged, never returned.
type CatalogService struct {
	store          store.CollectionStore
	events         EventPublisher
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewCatalogService creates a catalog service. events and idempotency may be
// nil.
func NewCatalogService(
	st store.CollectionStore,
	events EventPublisher,
	idempotency IdempotencyStore,
	idempotencyTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		store:          st,
		events:         events,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         util.Named("catalog"),
	}
}

// CreateResult is returned by Create. Replayed is set when the id comes from
// an earlier request with the same idempotency key.
type CreateResult struct {
	InsertedID string `json:"inserted_id"`
	Replayed   bool   `json:"-"`
}

// List returns every document of a collection in store order.
func (s *CatalogService) List(ctx context.Context, collection string) ([]store.Document, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.List")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection))

	coll, err := parseCollection(collection)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Find(ctx, coll, nil)
	if err != nil {
		return nil, mapStoreError(err, "failed to list "+collection)
	}

	out := make([]store.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, publicDocument(d))
	}
	return out, nil
}

// Get returns one document by id.
func (s *CatalogService) Get(ctx context.Context, collection, id string) (store.Document, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.String("id", id))

	coll, err := parseCollection(collection)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.FindOne(ctx, coll, id)
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("%s %s not found", collection, id))
	}
	return publicDocument(doc), nil
}

// Create decodes the payload as the collection's model, checks that every
// referenced document exists and inserts it.
func (s *CatalogService) Create(ctx context.Context, collection string, payload map[string]any, idempotencyKey string) (*CreateResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection))

	coll, err := parseCollection(collection)
	if err != nil {
		return nil, err
	}

	if id := s.lookupInsert(ctx, coll, idempotencyKey); id != "" {
		return s.replay(collection, idempotencyKey, id), nil
	}

	model, err := s.decodeModel(ctx, coll, payload)
	if err != nil {
		util.CatalogWritesFailed.WithLabelValues(collection, "create", "invalid").Inc()
		return nil, err
	}

	doc := model.ToDocument()
	if _, ok := doc[store.IDField]; !ok && idempotencyKey != "" {
		doc[store.IDField] = primitive.NewObjectID().Hex()
	}

	// The key is reserved for the new id before the insert, so concurrent
	// requests with the same key replay it instead of inserting again.
	reserved, winner := s.reserveInsert(ctx, coll, idempotencyKey, pipeline.IDString(doc[store.IDField]))
	if winner != "" {
		return s.replay(collection, idempotencyKey, winner), nil
	}

	id, err := s.store.Insert(ctx, coll, doc)
	if err != nil {
		if reserved {
			s.forgetInsert(ctx, coll, idempotencyKey)
		}
		util.CatalogWritesFailed.WithLabelValues(collection, "create", "store").Inc()
		return nil, mapStoreError(err, "failed to create "+collection)
	}

	util.CatalogWritesTotal.WithLabelValues(collection, "create").Inc()
	s.logger.Info("Document created", zap.String("collection", collection), zap.String("id", id))

	s.publish(ctx, models.EventTypeDocumentCreated, coll, id)
	return &CreateResult{InsertedID: id}, nil
}

func (s *CatalogService) replay(collection, key, id string) *CreateResult {
	util.IdempotentReplaysTotal.WithLabelValues(collection).Inc()
	s.logger.Info("Duplicate create request detected",
		zap.String("collection", collection),
		zap.String("idempotency_key", key),
		zap.String("id", id))
	return &CreateResult{InsertedID: id, Replayed: true}
}

// Update merges patch into the stored document. The identifier never
// changes.
func (s *CatalogService) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.String("id", id))

	coll, err := parseCollection(collection)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return apperrors.New(apperrors.CodeValidation, "update body must not be empty")
	}

	existing, err := s.store.FindOne(ctx, coll, id)
	if err != nil {
		return mapStoreError(err, fmt.Sprintf("%s %s not found", collection, id))
	}

	merged := publicDocument(existing)
	for k, v := range patch {
		if k == store.IDField {
			continue
		}
		merged[k] = v
	}

	model, err := s.decodeModel(ctx, coll, merged)
	if err != nil {
		util.CatalogWritesFailed.WithLabelValues(collection, "update", "invalid").Inc()
		return err
	}

	doc := model.ToDocument()
	delete(doc, store.IDField)

	matched, err := s.store.Update(ctx, coll, id, store.Document(doc))
	if err != nil {
		util.CatalogWritesFailed.WithLabelValues(collection, "update", "store").Inc()
		return mapStoreError(err, "failed to update "+collection)
	}
	if matched == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("%s %s not found", collection, id))
	}

	util.CatalogWritesTotal.WithLabelValues(collection, "update").Inc()
	s.publish(ctx, models.EventTypeDocumentUpdated, coll, id)
	return nil
}

// Delete removes one document. References to it are left dangling and
// simply stop matching in reports.
func (s *CatalogService) Delete(ctx context.Context, collection, id string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.String("id", id))

	coll, err := parseCollection(collection)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, coll, id)
	if err != nil {
		util.CatalogWritesFailed.WithLabelValues(collection, "delete", "store").Inc()
		return mapStoreError(err, "failed to delete "+collection)
	}
	if deleted == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("%s %s not found", collection, id))
	}

	util.CatalogWritesTotal.WithLabelValues(collection, "delete").Inc()
	s.publish(ctx, models.EventTypeDocumentDeleted, coll, id)
	return nil
}

func (s *CatalogService) decodeModel(ctx context.Context, coll store.Collection, payload map[string]any) (catalogModel, error) {
	var model catalogModel
	switch coll {
	case store.Brands:
		model = &models.Brand{}
	case store.Products:
		model = &models.Product{}
	case store.Users:
		model = &models.User{Role: models.RoleCustomer}
	case store.Reviews:
		model = &models.Review{}
	case store.Sales:
		model = &models.Sale{}
	default:
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown collection %q", coll))
	}

	if err := models.DecodeDocument(payload, model); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid "+string(coll)+" document")
	}

	// Sale dates are stored in canonical form so date reports can match them
	// by equality. Unparseable dates are kept as given and never match.
	if sale, ok := model.(*models.Sale); ok {
		if day, ok := models.SaleDay(sale.SaleDate); ok {
			sale.SaleDate = day
		}
	}

	if ref, ok := model.(referencing); ok {
		if err := s.checkReferences(ctx, ref.References()); err != nil {
			return nil, err
		}
	}
	return model, nil
}

func (s *CatalogService) checkReferences(ctx context.Context, refs map[string]string) error {
	for _, coll := range store.Collections {
		id, ok := refs[string(coll)]
		if !ok || id == "" {
			continue
		}
		if _, err := s.store.FindOne(ctx, coll, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("referenced %s %s does not exist", coll, id))
			}
			return mapStoreError(err, "failed to check reference")
		}
	}
	return nil
}

func (s *CatalogService) lookupInsert(ctx context.Context, coll store.Collection, key string) string {
	if s.idempotency == nil || key == "" {
		return ""
	}
	id, err := s.idempotency.LookupInsert(ctx, string(coll), key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("collection", string(coll)), zap.Error(err))
		return ""
	}
	return id
}

// reserveInsert claims key for id. It returns the id of an earlier request
// when that one holds the key. Store failures leave the create unguarded.
func (s *CatalogService) reserveInsert(ctx context.Context, coll store.Collection, key, id string) (reserved bool, winner string) {
	if s.idempotency == nil || key == "" {
		return false, ""
	}
	ok, err := s.idempotency.RememberInsert(ctx, string(coll), key, id, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn("Failed to reserve idempotency key", zap.String("collection", string(coll)), zap.Error(err))
		return false, ""
	}
	if ok {
		return true, ""
	}
	return false, s.lookupInsert(ctx, coll, key)
}

func (s *CatalogService) forgetInsert(ctx context.Context, coll store.Collection, key string) {
	if err := s.idempotency.ForgetInsert(ctx, string(coll), key); err != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("collection", string(coll)), zap.Error(err))
	}
}

func (s *CatalogService) publish(ctx context.Context, eventType string, coll store.Collection, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDocumentChanged(ctx, eventType, string(coll), id); err != nil {
		s.logger.Error("Failed to publish change event",
			zap.String("event_type", eventType),
			zap.String("collection", string(coll)),
			zap.String("id", id),
			zap.Error(err))
	}
}

func parseCollection(name string) (store.Collection, error) {
	coll := store.Collection(name)
	if !coll.Valid() {
		return "", apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown collection %q", name))
	}
	return coll, nil
}

func mapStoreError(err error, message string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, err, message)
	case errors.Is(err, store.ErrUnknownCollection):
		return apperrors.Wrap(apperrors.CodeNotFound, err, message)
	case errors.Is(err, store.ErrDuplicateID):
		return apperrors.Wrap(apperrors.CodeConflict, err, "document id already exists")
	case errors.Is(err, store.ErrUnavailable):
		return apperrors.Wrap(apperrors.CodeDependency, err, "store unavailable")
	default:
		return apperrors.Wrap(apperrors.CodeInternal, err, message)
	}
}

// publicDocument renders native identifiers as hex strings.
func publicDocument(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		if oid, ok := v.(primitive.ObjectID); ok {
			out[k] = oid.Hex()
			continue
		}
		out[k] = v
	}
	return out
}
