package models

import (
	"strings"
	"time"
)

// ListingKind separates sell offers from buy requests on the exchange board.
type ListingKind string

const (
	ListingBuy  ListingKind = "buy"
	ListingSell ListingKind = "sell"
)

// ListingType is the category of goods being exchanged.
type ListingType string

const (
	TypeSeed       ListingType = "seed"
	TypeFertilizer ListingType = "fertilizer"
	TypeEquipment  ListingType = "equipment"
)

type Listing struct {
	ID        string      `json:"id"`
	Kind      ListingKind `json:"kind"`
	Item      string      `json:"item"`
	Quantity  string      `json:"quantity"`
	Farmer    string      `json:"farmer"`
	Location  string      `json:"location"`
	Contact   string      `json:"contact"`
	Type      ListingType `json:"type"`
	OwnerID   string      `json:"owner_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
