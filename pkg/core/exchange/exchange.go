// Package exchange runs the seed, fertilizer and equipment exchange board.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"farmer_assist/pkg/core/store"
	"farmer_assist/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidListing = errors.New("invalid listing")

// Repo is satisfied by store.ListingRepo and store.MemoryListingRepo.
type Repo interface {
	Create(ctx context.Context, l *models.Listing) error
	List(ctx context.Context, f store.ListingFilter) ([]models.Listing, error)
	Count(ctx context.Context) (int, error)
}

type Service struct {
	repo   Repo
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, now: time.Now, logger: logger.Named("exchange")}
}

// Seed stores the sample board when the repository is empty. It returns
// the number of listings added.
func (s *Service) Seed(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	base := s.now().UTC()
	samples := SampleListings()
	for i := range samples {
		l := samples[i]
		l.ID = uuid.New().String()
		// Keep the sample order when listed newest first.
		l.CreatedAt = base.Add(-time.Duration(i) * time.Minute)
		if err := s.repo.Create(ctx, &l); err != nil {
			return i, err
		}
	}
	s.logger.Info("seeded exchange board", zap.Int("listings", len(samples)))
	return len(samples), nil
}

// List returns listings matching f, newest first.
func (s *Service) List(ctx context.Context, f store.ListingFilter) ([]models.Listing, error) {
	if f.Kind != "" && !validKind(f.Kind) {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidListing, f.Kind)
	}
	if f.Type != "" && !validType(f.Type) {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidListing, f.Type)
	}
	return s.repo.List(ctx, f)
}

// Create validates and stores a new listing owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, l models.Listing) (*models.Listing, error) {
	l.Item = strings.TrimSpace(l.Item)
	l.Quantity = strings.TrimSpace(l.Quantity)
	l.Farmer = strings.TrimSpace(l.Farmer)
	l.Location = strings.TrimSpace(l.Location)
	l.Contact = strings.TrimSpace(l.Contact)
	l.Kind = models.ListingKind(strings.ToLower(string(l.Kind)))
	l.Type = models.ListingType(strings.ToLower(string(l.Type)))

	if err := Validate(l); err != nil {
		return nil, err
	}
	l.ID = uuid.New().String()
	l.OwnerID = ownerID
	l.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks that every field is filled and the enums are known.
func Validate(l models.Listing) error {
	var missing []string
	for name, v := range map[string]string{
		"item": l.Item, "quantity": l.Quantity, "farmer": l.Farmer,
		"location": l.Location, "contact": l.Contact,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %s", ErrInvalidListing, strings.Join(missing, ", "))
	}
	if !validKind(l.Kind) {
		return fmt.Errorf("%w: kind must be buy or sell", ErrInvalidListing)
	}
	if !validType(l.Type) {
		return fmt.Errorf("%w: type must be seed, fertilizer or equipment", ErrInvalidListing)
	}
	return nil
}

func validKind(k models.ListingKind) bool {
	return k == models.ListingBuy || k == models.ListingSell
}

func validType(t models.ListingType) bool {
	switch t {
	case models.TypeSeed, models.TypeFertilizer, models.TypeEquipment:
		return true
	}
	return false
}
