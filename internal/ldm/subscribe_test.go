package ldm

import (
	"errors"
	"testing"
	"time"

	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/pkg/its"
)

func waitNotification(t *testing.T, ch <-chan Notification) Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a notification")
		return Notification{}
	}
}

func expectSilence(t *testing.T, ch <-chan Notification) {
	t.Helper()
	select {
	case n := <-ch:
		t.Fatalf("unexpected notification with %d objects", len(n.Objects))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeValidation(t *testing.T) {
	l := newTestLDM(t, nil)
	registerConsumer(t, l, "hmi")

	cb := func(Notification) {}

	tests := []struct {
		name string
		req  *SubscribeRequest
		want error
	}{
		{
			name: "unregistered consumer",
			req:  &SubscribeRequest{ApplicationID: "ghost", Types: []its.TypeTag{its.TagCAM}, Callback: cb},
			want: model.ErrNotRegistered,
		},
		{
			name: "unpermitted type",
			req:  &SubscribeRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagDENM}, Callback: cb},
			want: model.ErrPermissionDenied,
		},
		{
			name: "no callback",
			req:  &SubscribeRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM}},
			want: model.ErrInvalidParameters,
		},
		{
			name: "no types",
			req:  &SubscribeRequest{ApplicationID: "hmi", Callback: cb},
			want: model.ErrInvalidParameters,
		},
		{
			name: "negative notify interval",
			req:  &SubscribeRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM}, NotifyInterval: -time.Second, Callback: cb},
			want: model.ErrInvalidParameters,
		},
		{
			name: "negative multiplicity",
			req:  &SubscribeRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM}, Multiplicity: -1, Callback: cb},
			want: model.ErrInvalidParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Subscribe(tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScenarioSubscriptionFilter(t *testing.T) {
	// Subscribe to CAM with filter header.stationID != 1 and no throttle.
	// A CAM from station 1 stays silent, a CAM from station 2 produces
	// exactly one notification carrying the one matching object.
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	ch := make(chan Notification, 4)
	id, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Filter:        filter.Comparison{Path: "header.stationID", Op: filter.NotEqual, Value: 1},
		Callback:      func(n Notification) { ch <- n },
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)
	expectSilence(t, ch)

	publishCam(t, l, 2, time.Now(), testCenter, time.Minute)
	n := waitNotification(t, ch)
	if n.SubscriptionID != id {
		t.Errorf("notification subscription = %v, want %v", n.SubscriptionID, id)
	}
	if n.ApplicationID != "hmi" {
		t.Errorf("notification application = %q, want hmi", n.ApplicationID)
	}
	if len(n.Objects) != 1 {
		t.Fatalf("notification carries %d objects, want 1", len(n.Objects))
	}
	if v, _ := n.Objects[0].Payload.Field("header.stationID"); v != uint32(2) {
		t.Errorf("notified station = %v, want 2", v)
	}
	expectSilence(t, ch)
}

func TestSubscriptionCarriesFullMatchingSet(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	ch := make(chan Notification, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Callback:      func(n Notification) { ch <- n },
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)
	if n := waitNotification(t, ch); len(n.Objects) != 1 {
		t.Fatalf("first notification: %d objects, want 1", len(n.Objects))
	}

	// The second change notifies the whole matching set, not the delta.
	publishCam(t, l, 2, time.Now(), testCenter, time.Minute)
	if n := waitNotification(t, ch); len(n.Objects) != 2 {
		t.Fatalf("second notification: %d objects, want 2", len(n.Objects))
	}
}

func TestSubscriptionTypeScoping(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	if err := l.RegisterProvider("denm-service", []its.TypeTag{its.TagDENM}, time.Minute); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	registerConsumer(t, l, "hmi", its.TagCAM, its.TagDENM)

	ch := make(chan Notification, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagDENM},
		Callback:      func(n Notification) { ch <- n },
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// A CAM change does not touch a DENM-only subscription.
	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)
	expectSilence(t, ch)

	err := l.Publish(&PublishRequest{
		ApplicationID: "denm-service",
		Type:          its.TagDENM,
		Timestamp:     time.Now(),
		Location:      testCenter,
		Payload: &its.Denm{
			Header:   its.ItsPduHeader{StationID: 7},
			ActionID: its.ActionID{OriginatingStationID: 7, SequenceNumber: 1},
		},
	})
	if err != nil {
		t.Fatalf("Publish DENM: %v", err)
	}
	if n := waitNotification(t, ch); len(n.Objects) != 1 {
		t.Fatalf("DENM notification: %d objects, want 1", len(n.Objects))
	}
}

func TestSubscriptionThrottling(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	base := time.Now()
	l.now = func() time.Time { return base }

	ch := make(chan Notification, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID:  "hmi",
		Types:          []its.TypeTag{its.TagCAM},
		NotifyInterval: 10 * time.Second,
		Callback:       func(n Notification) { ch <- n },
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	publishCam(t, l, 1, base, testCenter, time.Minute)
	waitNotification(t, ch)

	// Within the interval: coalesced away.
	l.now = func() time.Time { return base.Add(time.Second) }
	publishCam(t, l, 2, base, testCenter, time.Minute)
	expectSilence(t, ch)

	// Past the interval: the next change delivers the accumulated set.
	l.now = func() time.Time { return base.Add(11 * time.Second) }
	publishCam(t, l, 3, base, testCenter, time.Minute)
	if n := waitNotification(t, ch); len(n.Objects) != 3 {
		t.Fatalf("post-interval notification: %d objects, want 3", len(n.Objects))
	}
}

func TestSubscriptionMultiplicity(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	ch := make(chan Notification, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Order:         []filter.OrderBy{{Path: "header.stationID", Direction: filter.Descending}},
		Multiplicity:  1,
		Callback:      func(n Notification) { ch <- n },
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	now := time.Now()
	publishCam(t, l, 1, now, testCenter, time.Minute)
	waitNotification(t, ch)
	publishCam(t, l, 2, now, testCenter, time.Minute)

	n := waitNotification(t, ch)
	if len(n.Objects) != 1 {
		t.Fatalf("capped notification: %d objects, want 1", len(n.Objects))
	}
	if v, _ := n.Objects[0].Payload.Field("header.stationID"); v != uint32(2) {
		t.Errorf("cap must keep the ordered head, got station %v", v)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	ch := make(chan Notification, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Callback:      func(n Notification) { ch <- n },
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := l.Unsubscribe("hmi"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)
	expectSilence(t, ch)

	if err := l.Unsubscribe("ghost"); !errors.Is(err, model.ErrNotRegistered) {
		t.Errorf("Unsubscribe(ghost) error = %v, want ErrNotRegistered", err)
	}
}

func TestDeregisterConsumerCancelsSubscriptions(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	ch := make(chan Notification, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Callback:      func(n Notification) { ch <- n },
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := l.DeregisterConsumer("hmi"); err != nil {
		t.Fatalf("DeregisterConsumer: %v", err)
	}

	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)
	expectSilence(t, ch)
}

func TestCallbackMayQueryBack(t *testing.T) {
	// Callbacks run outside the store lock, so a consumer reading back
	// from inside its own callback must not deadlock.
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	counts := make(chan int, 4)
	if _, err := l.Subscribe(&SubscribeRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Callback: func(Notification) {
			objs, err := l.Query(&QueryRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM}})
			if err != nil {
				counts <- -1
				return
			}
			counts <- len(objs)
		},
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)

	select {
	case n := <-counts:
		if n != 1 {
			t.Errorf("re-entrant query saw %d objects, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never completed, re-entrant query deadlocked")
	}
}
