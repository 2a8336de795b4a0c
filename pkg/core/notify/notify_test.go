package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"farmer_assist/pkg/core/store"
	"farmer_assist/pkg/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSendEmergency(t *testing.T) {
	svc := NewService(store.NewMemoryNotificationRepo(), nil, nil, nil)
	ctx := context.Background()

	r, err := svc.SendEmergency(ctx, "u1", Alert{Kind: "flood"})
	require.NoError(t, err)
	assert.Equal(t, "Flood", r.Notification.Kind)
	assert.Equal(t, "Immediate assistance required due to Flood.", r.Notification.Message)
	assert.Equal(t, "Flood notification has been broadcast to nearby authorities and farmers.", r.Confirmation)
	assert.Equal(t, models.AudienceAll, r.Notification.Audience)
	assert.NotEmpty(t, r.Notification.ID)

	_, err = svc.SendEmergency(ctx, "u1", Alert{Kind: "Other"})
	assert.ErrorIs(t, err, ErrMessageRequired)

	r, err = svc.SendEmergency(ctx, "u1", Alert{Kind: "Other", Message: "Snake bite near the well", State: "Karnataka", District: "Mysuru"})
	require.NoError(t, err)
	assert.Equal(t, "Snake bite near the well", r.Notification.Message)
	assert.Equal(t, models.AudienceDistrict, r.Notification.Audience)

	_, err = svc.SendEmergency(ctx, "u1", Alert{Kind: "Earthquake"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSendFoodCall(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	r, err := svc.SendFoodCall(context.Background(), "", Alert{Kind: "Lunch"})
	require.NoError(t, err)
	assert.Equal(t, "Lunch is ready. Please come and eat.", r.Notification.Message)
	assert.Equal(t, models.CategoryFoodCall, r.Notification.Category)

	_, err = svc.SendFoodCall(context.Background(), "", Alert{Kind: "Fire"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSendBroadcast_Validation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   Broadcast
		err  error
	}{
		{"empty message", Broadcast{Audience: models.AudienceAll}, ErrMessageRequired},
		{"bad audience", Broadcast{Audience: "village", Message: "hi"}, ErrInvalidAudience},
		{"missing state", Broadcast{Audience: models.AudienceState, Message: "hi"}, ErrUnknownRegion},
		{"unknown district", Broadcast{Audience: models.AudienceDistrict, State: "Karnataka", District: "Pune", Message: "hi"}, ErrUnknownRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendBroadcast(ctx, "admin", tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	r, err := svc.SendBroadcast(ctx, "admin", Broadcast{Audience: models.AudienceDistrict, State: "tamil nadu", District: "madurai", Message: "Water release tomorrow"})
	require.NoError(t, err)
	assert.Equal(t, "Tamil Nadu", r.Notification.State)
	assert.Equal(t, "Madurai", r.Notification.District)
}

func TestHub_FiltersByLocation(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	mysuru := hub.Subscribe("Karnataka", "Mysuru")
	pune := hub.Subscribe("Maharashtra", "Pune")
	nowhere := hub.Subscribe("", "")

	svc := NewService(nil, hub, nil, nil)
	r, err := svc.SendBroadcast(context.Background(), "admin", Broadcast{Audience: models.AudienceState, State: "Karnataka", Message: "Rain alert"})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Delivered)

	got := <-mysuru.C
	assert.Equal(t, "Rain alert", got.Message)
	assert.Empty(t, pune.C)
	assert.Empty(t, nowhere.C)

	_, err = svc.SendBroadcast(context.Background(), "admin", Broadcast{Message: "Holiday"})
	require.NoError(t, err)
	assert.Len(t, nowhere.C, 1)
	assert.Len(t, pune.C, 1)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe("", "")

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(models.Notification{Audience: models.AudienceAll})
	}
	assert.Len(t, slow.C, subscriberBuffer)
	assert.Equal(t, 5, slow.dropped)

	slow.Cancel()
	slow.Cancel()
	assert.Zero(t, hub.Len())
	hub.Close()
}

func TestHub_CloseEndsReaders(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		sub := hub.Subscribe("", "")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range sub.C {
			}
		}()
	}
	hub.Publish(models.Notification{Audience: models.AudienceAll})
	hub.Close()
	wg.Wait()

	late := hub.Subscribe("", "")
	_, open := <-late.C
	assert.False(t, open)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	svc := NewService(nil, nil, NewKafkaPublisherWithWriter(w), nil)

	_, err := svc.SendEmergency(context.Background(), "u1", Alert{Kind: "Fire"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "emergency", string(w.msgs[0].Key))
	assert.Contains(t, string(w.msgs[0].Value), "Immediate assistance required due to Fire.")

	w.err = errors.New("broker down")
	_, err = svc.SendEmergency(context.Background(), "u1", Alert{Kind: "Fire"})
	assert.NoError(t, err, "publish failure is logged, not returned")
}

func TestRegionsIsACopy(t *testing.T) {
	rs := Regions()
	require.Len(t, rs, 4)
	rs[0].Districts[0] = "changed"
	assert.Equal(t, "Bengaluru Urban", Regions()[0].Districts[0])
}
