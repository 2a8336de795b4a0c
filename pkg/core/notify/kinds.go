// Package notify validates and fans out emergency alerts, food calls and
// admin broadcasts.
package notify

import (
	"errors"
	"fmt"
	"strings"

	"farmer_assist/pkg/models"
)

var (
	ErrUnknownKind     = errors.New("unknown notification type")
	ErrMessageRequired = errors.New("message is required")
	ErrUnknownRegion   = errors.New("unknown state or district")
	ErrInvalidAudience = errors.New("audience must be all, state or district")
)

const KindOther = "Other"

// EmergencyKinds lists the alerts shown on the emergency screen.
var EmergencyKinds = []string{"Fire", "Flood", "Medical Emergency", KindOther}

// FoodCallKinds lists the meals a food call can announce.
var FoodCallKinds = []string{"Breakfast", "Lunch", "Snacks", "Dinner", KindOther}

// Region is a state and its districts.
type Region struct {
	State     string   `json:"state"`
	Districts []string `json:"districts"`
}

var regions = []Region{
	{State: "Karnataka", Districts: []string{"Bengaluru Urban", "Mysuru", "Mangaluru"}},
	{State: "Maharashtra", Districts: []string{"Mumbai", "Pune", "Nagpur"}},
	{State: "Tamil Nadu", Districts: []string{"Chennai", "Coimbatore", "Madurai"}},
	{State: "Uttar Pradesh", Districts: []string{"Lucknow", "Kanpur", "Agra"}},
}

// Regions returns the broadcast targets the admin screen offers.
func Regions() []Region {
	out := make([]Region, len(regions))
	for i, r := range regions {
		out[i] = Region{State: r.State, Districts: append([]string(nil), r.Districts...)}
	}
	return out
}

func findState(state string) (Region, bool) {
	for _, r := range regions {
		if strings.EqualFold(r.State, strings.TrimSpace(state)) {
			return r, true
		}
	}
	return Region{}, false
}

func canonicalKind(kinds []string, kind string) (string, bool) {
	for _, k := range kinds {
		if strings.EqualFold(k, strings.TrimSpace(kind)) {
			return k, true
		}
	}
	return "", false
}

// Alert is a request to raise an emergency or food call.
type Alert struct {
	Kind     string `json:"type"`
	Message  string `json:"message,omitempty"`
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
}

// Broadcast is an admin message scoped to an audience.
type Broadcast struct {
	Audience models.Audience `json:"audience"`
	State    string          `json:"state,omitempty"`
	District string          `json:"district,omitempty"`
	Message  string          `json:"message"`
}

func emergencyMessage(kind string) string {
	return fmt.Sprintf("Immediate assistance required due to %s.", kind)
}

func foodCallMessage(kind string) string {
	return fmt.Sprintf("%s is ready. Please come and eat.", kind)
}

// Confirmation is the line shown to the sender after a successful send.
func Confirmation(kind string) string {
	return fmt.Sprintf("%s notification has been broadcast to nearby authorities and farmers.", kind)
}

// buildAlert validates a against kinds and fills in the default message.
func buildAlert(category models.NotificationCategory, kinds []string, a Alert, defaultMsg func(string) string) (*models.Notification, error) {
	kind, ok := canonicalKind(kinds, a.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
	msg := strings.TrimSpace(a.Message)
	if msg == "" {
		if kind == KindOther {
			return nil, ErrMessageRequired
		}
		msg = defaultMsg(kind)
	}

	n := &models.Notification{
		Category: category,
		Kind:     kind,
		Message:  msg,
		Audience: models.AudienceAll,
		State:    strings.TrimSpace(a.State),
		District: strings.TrimSpace(a.District),
	}
	// Senders with a known location alert their district only.
	if n.State != "" && n.District != "" {
		n.Audience = models.AudienceDistrict
	} else if n.State != "" {
		n.Audience = models.AudienceState
	}
	return n, nil
}

func buildBroadcast(b Broadcast) (*models.Notification, error) {
	msg := strings.TrimSpace(b.Message)
	if msg == "" {
		return nil, ErrMessageRequired
	}
	n := &models.Notification{
		Category: models.CategoryBroadcast,
		Kind:     "Broadcast",
		Message:  msg,
		Audience: b.Audience,
	}
	if n.Audience == "" {
		n.Audience = models.AudienceAll
	}

	switch n.Audience {
	case models.AudienceAll:
		return n, nil
	case models.AudienceState, models.AudienceDistrict:
	default:
		return nil, ErrInvalidAudience
	}

	region, ok := findState(b.State)
	if !ok {
		return nil, fmt.Errorf("%w: state %q", ErrUnknownRegion, b.State)
	}
	n.State = region.State
	if n.Audience == models.AudienceState {
		return n, nil
	}
	district, ok := canonicalKind(region.Districts, b.District)
	if !ok {
		return nil, fmt.Errorf("%w: district %q", ErrUnknownRegion, b.District)
	}
	n.District = district
	return n, nil
}
