package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/address-resolver/app/models"
	"github.com/address-resolver/helpers/utils"
)

var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrReviewNotPending = errors.New("review already decided")
)

// ReviewQuery selects a page of reviews
type ReviewQuery struct {
	Status string
	RunID  string
	Limit  int
	Offset int
}

// ReviewStore persists the review queue
type ReviewStore interface {
	Insert(ctx context.Context, reviews ...*models.AddressReview) error
	Get(ctx context.Context, id string) (*models.AddressReview, error)
	Update(ctx context.Context, review *models.AddressReview) error
	List(ctx context.Context, q ReviewQuery) ([]*models.AddressReview, int64, error)
	Close(ctx context.Context) error
}

// ReviewService queues unresolved addresses and records reviewer decisions
type ReviewService struct {
	store  ReviewStore
	logger *zap.Logger
}

// NewReviewService creates a ReviewService over store
func NewReviewService(store ReviewStore, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{store: store, logger: logger}
}

// Enqueue queues one unresolved row
func (rs *ReviewService) Enqueue(ctx context.Context, runID, source string, row int, in models.RawGeoInput,
	res models.ResolvedAddress, suggestions []models.Suggestion) (*models.AddressReview, error) {
	review := models.NewAddressReview(utils.GenerateUUID(), runID, source, row, in, res, suggestions)
	if err := rs.store.Insert(ctx, review); err != nil {
		return nil, err
	}

	rs.logger.Debug("Queued address for review",
		zap.String("id", review.ID),
		zap.String("run_id", runID),
		zap.Int("row", row))
	return review, nil
}

// Get returns one review
func (rs *ReviewService) Get(ctx context.Context, id string) (*models.AddressReview, error) {
	return rs.store.Get(ctx, id)
}

// List returns a page of reviews and the total count
func (rs *ReviewService) List(ctx context.Context, q ReviewQuery) ([]*models.AddressReview, int64, error) {
	return rs.store.List(ctx, q)
}

// PendingCount returns the number of open reviews
func (rs *ReviewService) PendingCount(ctx context.Context) (int64, error) {
	_, total, err := rs.store.List(ctx, ReviewQuery{Status: models.ReviewStatusPending, Limit: 1})
	return total, err
}

// Approve accepts the automatic result
func (rs *ReviewService) Approve(ctx context.Context, id, reviewerID string) (*models.AddressReview, error) {
	return rs.decide(ctx, id, func(r *models.AddressReview) { r.Approve(reviewerID) })
}

// Reject closes the review without a usable result
func (rs *ReviewService) Reject(ctx context.Context, id, reviewerID string) (*models.AddressReview, error) {
	return rs.decide(ctx, id, func(r *models.AddressReview) { r.Reject(reviewerID) })
}

// Correct stores a reviewer supplied address
func (rs *ReviewService) Correct(ctx context.Context, id, reviewerID string, result models.ResolvedAddress) (*models.AddressReview, error) {
	return rs.decide(ctx, id, func(r *models.AddressReview) { r.SetManualResult(result, reviewerID) })
}

func (rs *ReviewService) decide(ctx context.Context, id string, apply func(*models.AddressReview)) (*models.AddressReview, error) {
	review, err := rs.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.IsPending() {
		return nil, fmt.Errorf("%w: %s is %s", ErrReviewNotPending, id, review.Status)
	}

	apply(review)
	if err := rs.store.Update(ctx, review); err != nil {
		return nil, err
	}

	rs.logger.Info("Review decided",
		zap.String("id", id),
		zap.String("status", review.Status))
	return review, nil
}

// Close releases the store
func (rs *ReviewService) Close(ctx context.Context) error {
	return rs.store.Close(ctx)
}

// MemoryReviewStore keeps reviews in process memory
type MemoryReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*models.AddressReview
}

// NewMemoryReviewStore creates an empty MemoryReviewStore
func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{reviews: make(map[string]*models.AddressReview)}
}

// Insert adds reviews
func (s *MemoryReviewStore) Insert(ctx context.Context, reviews ...*models.AddressReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reviews {
		cp := *r
		s.reviews[r.ID] = &cp
	}
	return nil
}

// Get returns a copy of one review
func (s *MemoryReviewStore) Get(ctx context.Context, id string) (*models.AddressReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

// Update replaces a stored review
func (s *MemoryReviewStore) Update(ctx context.Context, review *models.AddressReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[review.ID]; !ok {
		return ErrReviewNotFound
	}
	cp := *review
	s.reviews[review.ID] = &cp
	return nil
}

// List returns a page of matching reviews, oldest first
func (s *MemoryReviewStore) List(ctx context.Context, q ReviewQuery) ([]*models.AddressReview, int64, error) {
	s.mu.RLock()
	matched := make([]*models.AddressReview, 0, len(s.reviews))
	for _, r := range s.reviews {
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if q.RunID != "" && r.RunID != q.RunID {
			continue
		}
		cp := *r
		matched = append(matched, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].RowNumber < matched[j].RowNumber
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []*models.AddressReview{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

// Close is a no-op
func (s *MemoryReviewStore) Close(ctx context.Context) error {
	return nil
}
