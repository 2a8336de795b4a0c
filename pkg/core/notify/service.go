package notify

import (
	"context"
	"time"

	"farmer_assist/pkg/core/metrics"
	"farmer_assist/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repo is satisfied by store.NotificationRepo and store.MemoryNotificationRepo.
type Repo interface {
	Create(ctx context.Context, n *models.Notification) error
	Recent(ctx context.Context, state, district string, limit int) ([]models.Notification, error)
}

// Receipt is returned to the sender.
type Receipt struct {
	Notification *models.Notification `json:"notification"`
	Confirmation string               `json:"confirmation"`
	Delivered    int                  `json:"delivered"`
}

type Service struct {
	repo      Repo
	hub       *Hub
	publisher Publisher // optional
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(repo Repo, hub *Hub, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Service{repo: repo, hub: hub, publisher: publisher, now: time.Now, logger: logger.Named("notify")}
}

func (s *Service) Hub() *Hub { return s.hub }

// SendEmergency raises a Fire, Flood, Medical Emergency or Other alert.
func (s *Service) SendEmergency(ctx context.Context, senderID string, a Alert) (*Receipt, error) {
	n, err := buildAlert(models.CategoryEmergency, EmergencyKinds, a, emergencyMessage)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, senderID, n)
}

// SendFoodCall announces that a meal is ready.
func (s *Service) SendFoodCall(ctx context.Context, senderID string, a Alert) (*Receipt, error) {
	n, err := buildAlert(models.CategoryFoodCall, FoodCallKinds, a, foodCallMessage)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, senderID, n)
}

// SendBroadcast sends an admin message to all users, a state or a district.
func (s *Service) SendBroadcast(ctx context.Context, senderID string, b Broadcast) (*Receipt, error) {
	n, err := buildBroadcast(b)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, senderID, n)
}

// Recent lists the newest notifications that reach state/district.
func (s *Service) Recent(ctx context.Context, state, district string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if s.repo == nil {
		return []models.Notification{}, nil
	}
	return s.repo.Recent(ctx, state, district, limit)
}

func (s *Service) send(ctx context.Context, senderID string, n *models.Notification) (*Receipt, error) {
	n.ID = uuid.New().String()
	n.SenderID = senderID
	n.CreatedAt = s.now().UTC()

	if s.repo != nil {
		if err := s.repo.Create(ctx, n); err != nil {
			return nil, err
		}
	}

	delivered := s.hub.Publish(*n)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *n); err != nil {
			s.logger.Warn("external publish failed", zap.String("id", n.ID), zap.Error(err))
		}
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Category)).Inc()
	s.logger.Info("notification sent",
		zap.String("category", string(n.Category)),
		zap.String("kind", n.Kind),
		zap.String("audience", string(n.Audience)),
		zap.Int("delivered", delivered))

	return &Receipt{Notification: n, Confirmation: Confirmation(n.Kind), Delivered: delivered}, nil
}
