package store

import (
	"context"
	"fmt"
	"strings"

	"farmer_assist/pkg/models"
)

// ListingFilter narrows an exchange listing query. Zero values match all.
type ListingFilter struct {
	Kind  models.ListingKind
	Type  models.ListingType
	Query string // substring of item, farmer or location
	Limit int
}

// Matches applies the filter to one listing.
func (f ListingFilter) Matches(l models.Listing) bool {
	if f.Kind != "" && l.Kind != f.Kind {
		return false
	}
	if f.Type != "" && l.Type != f.Type {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(l.Item + " " + l.Farmer + " " + l.Location)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// ListingRepo stores exchange listings in Postgres.
type ListingRepo struct {
	db DB
}

func NewListingRepo(db DB) *ListingRepo {
	return &ListingRepo{db: db}
}

func (r *ListingRepo) Create(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (id, kind, item, quantity, farmer, location, contact, type, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		l.ID, string(l.Kind), l.Item, l.Quantity, l.Farmer, l.Location, l.Contact, string(l.Type), l.OwnerID, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// Count returns the number of stored listings.
func (r *ListingRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

// List returns matching listings, newest first.
func (r *ListingRepo) List(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(item ILIKE $%d OR farmer ILIKE $%d OR location ILIKE $%d)", n, n, n))
	}

	query := `SELECT id, kind, item, quantity, farmer, location, contact, type, owner_id, created_at FROM listings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	out := []models.Listing{}
	for rows.Next() {
		var l models.Listing
		var kind, typ string
		if err := rows.Scan(&l.ID, &kind, &l.Item, &l.Quantity, &l.Farmer, &l.Location, &l.Contact, &typ, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		l.Kind = models.ListingKind(kind)
		l.Type = models.ListingType(typ)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return out, nil
}
