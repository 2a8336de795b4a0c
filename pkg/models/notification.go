package models

import "time"

// NotificationCategory groups notifications by the screen that raised them.
type NotificationCategory string

const (
	CategoryEmergency NotificationCategory = "emergency"
	CategoryFoodCall  NotificationCategory = "food_call"
	CategoryBroadcast NotificationCategory = "broadcast"
)

// Audience scopes an admin broadcast.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceState    Audience = "state"
	AudienceDistrict Audience = "district"
)

type Notification struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"category"`
	Kind      string               `json:"kind"`
	Message   string               `json:"message"`
	Audience  Audience             `json:"audience"`
	State     string               `json:"state,omitempty"`
	District  string               `json:"district,omitempty"`
	SenderID  string               `json:"sender_id,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Reaches reports whether a subscriber located in state/district should
// receive n. An empty subscriber location only matches AudienceAll.
func (n *Notification) Reaches(state, district string) bool {
	switch n.Audience {
	case AudienceState:
		return equalFold(n.State, state)
	case AudienceDistrict:
		return equalFold(n.State, state) && equalFold(n.District, district)
	default:
		return true
	}
}
