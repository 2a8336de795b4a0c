package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"farmer_assist/pkg/models"
)

// MemoryDiagnosisRepo keeps diagnoses in process memory.
type MemoryDiagnosisRepo struct {
	mu    sync.RWMutex
	items []models.Diagnosis
}

func NewMemoryDiagnosisRepo() *MemoryDiagnosisRepo {
	return &MemoryDiagnosisRepo{}
}

func (r *MemoryDiagnosisRepo) Create(_ context.Context, d *models.Diagnosis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *d)
	return nil
}

func (r *MemoryDiagnosisRepo) ListByUser(_ context.Context, appID, userID string, limit int) ([]models.Diagnosis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk backwards so records sharing a timestamp stay newest first.
	out := []models.Diagnosis{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if d := r.items[i]; d.AppID == appID && d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

// MemoryUserRepo keeps accounts in process memory.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]models.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.ID]; exists {
		return fmt.Errorf("user '%s' already exists", u.ID)
	}
	if u.Phone != "" {
		for _, other := range r.users {
			if other.Phone == u.Phone {
				return fmt.Errorf("phone %s already registered", u.Phone)
			}
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepo) Get(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if phone != "" && u.Phone == phone {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	r.users[u.ID] = *u
	return nil
}

// MemoryNotificationRepo keeps the notification log in process memory.
type MemoryNotificationRepo struct {
	mu    sync.RWMutex
	items []models.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{}
}

func (r *MemoryNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *n)
	return nil
}

func (r *MemoryNotificationRepo) Recent(_ context.Context, state, district string, limit int) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Notification{}
	for i := len(r.items) - 1; i >= 0; i-- {
		n := r.items[i]
		if n.Reaches(state, district) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

// MemoryListingRepo keeps exchange listings in process memory.
type MemoryListingRepo struct {
	mu    sync.RWMutex
	items []models.Listing
}

func NewMemoryListingRepo() *MemoryListingRepo {
	return &MemoryListingRepo{}
}

func (r *MemoryListingRepo) Create(_ context.Context, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *l)
	return nil
}

func (r *MemoryListingRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *MemoryListingRepo) List(_ context.Context, f ListingFilter) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Listing{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if f.Matches(r.items[i]) {
			out = append(out, r.items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, f.Limit), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
