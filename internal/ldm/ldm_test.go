package ldm

import (
	"errors"
	"testing"
	"time"

	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
)

// Coordinates of the §8-style fixtures: 41.386931N 2.112104E.
var (
	testCenter = geo.Position{Latitude: 41.386931, Longitude: 2.112104}
	farAway    = geo.Position{Latitude: 48.856614, Longitude: 2.352222} // Paris, well outside
)

func newTestLDM(t *testing.T, cfg *Config) *LocalDynamicMap {
	t.Helper()
	if cfg == nil {
		cfg = &Config{AreaOfMaintenance: geo.Circle{Center: testCenter, Radius: 5000}}
	}
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

func registerCamProvider(t *testing.T, l *LocalDynamicMap, validity time.Duration) {
	t.Helper()
	if err := l.RegisterProvider("cam-service", []its.TypeTag{its.TagCAM}, validity); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
}

func registerConsumer(t *testing.T, l *LocalDynamicMap, id string, tags ...its.TypeTag) {
	t.Helper()
	if len(tags) == 0 {
		tags = []its.TypeTag{its.TagCAM}
	}
	if err := l.RegisterConsumer(id, tags, nil); err != nil {
		t.Fatalf("RegisterConsumer: %v", err)
	}
}

func publishCam(t *testing.T, l *LocalDynamicMap, stationID uint32, ts time.Time, pos geo.Position, validity time.Duration) {
	t.Helper()
	err := l.Publish(&PublishRequest{
		ApplicationID: "cam-service",
		Type:          its.TagCAM,
		Timestamp:     ts,
		Location:      pos,
		Payload: &its.Cam{
			Header:            its.ItsPduHeader{StationID: stationID},
			ReferencePosition: its.ReferencePosition{Latitude: int64(pos.Latitude * 1e7), Longitude: int64(pos.Longitude * 1e7)},
		},
		TimeValidity: validity,
	})
	if err != nil {
		t.Fatalf("Publish(station %d): %v", stationID, err)
	}
}

func queryCam(t *testing.T, l *LocalDynamicMap, id string) []*model.DataObject {
	t.Helper()
	objs, err := l.Query(&QueryRequest{ApplicationID: id, Types: []its.TypeTag{its.TagCAM}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	return objs
}

func TestPublishAuthorization(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, 5*time.Second)

	cam := &its.Cam{Header: its.ItsPduHeader{StationID: 1}}

	err := l.Publish(&PublishRequest{
		ApplicationID: "ghost",
		Type:          its.TagCAM,
		Timestamp:     time.Now(),
		Payload:       cam,
	})
	if !errors.Is(err, model.ErrNotRegistered) {
		t.Errorf("unregistered provider error = %v, want ErrNotRegistered", err)
	}

	err = l.Publish(&PublishRequest{
		ApplicationID: "cam-service",
		Type:          its.TagDENM,
		Timestamp:     time.Now(),
		Payload:       &its.Denm{},
	})
	if !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("unpermitted type error = %v, want ErrPermissionDenied", err)
	}

	err = l.Publish(&PublishRequest{
		ApplicationID: "cam-service",
		Type:          its.TagCAM,
		Payload:       cam,
	})
	if !errors.Is(err, model.ErrInvalidParameters) {
		t.Errorf("zero timestamp error = %v, want ErrInvalidParameters", err)
	}
}

func TestTimeExpiry(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, 5*time.Second)
	registerConsumer(t, l, "hmi")

	base := time.Now()
	l.now = func() time.Time { return base }

	publishCam(t, l, 1, base, testCenter, 5*time.Second)

	// Just inside the validity window.
	l.now = func() time.Time { return base.Add(5*time.Second - 100*time.Millisecond) }
	if got := queryCam(t, l, "hmi"); len(got) != 1 {
		t.Fatalf("query before expiry: %d objects, want 1", len(got))
	}

	// Just past it.
	l.now = func() time.Time { return base.Add(5*time.Second + 100*time.Millisecond) }
	if got := queryCam(t, l, "hmi"); len(got) != 0 {
		t.Fatalf("query after expiry: %d objects, want 0", len(got))
	}
}

func TestAreaInvalidation(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	// Object located far outside the maintenance area.
	publishCam(t, l, 1, time.Now(), farAway, time.Minute)

	// Invisible, and the reactive read also removed it.
	if got := queryCam(t, l, "hmi"); len(got) != 0 {
		t.Fatalf("out-of-area object returned: %d objects, want 0", len(got))
	}
	if l.ObjectCount() != 0 {
		t.Fatalf("out-of-area object survived the reactive read")
	}

	// Host moves next to the publisher: subsequent messages are relevant.
	publishCam(t, l, 1, time.Now(), farAway, time.Minute)
	l.RefreshAreaOfMaintenance(farAway)
	if got := queryCam(t, l, "hmi"); len(got) != 1 {
		t.Fatalf("query after area refresh: %d objects, want 1", len(got))
	}
}

func TestIdempotentUpdate(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	first := time.Now()
	publishCam(t, l, 1, first, testCenter, time.Minute)
	second := first.Add(time.Second)
	publishCam(t, l, 1, second, testCenter, time.Minute)

	objs := queryCam(t, l, "hmi")
	if len(objs) != 1 {
		t.Fatalf("republished object duplicated: %d objects, want 1", len(objs))
	}
	if !objs[0].Timestamp.Equal(second) {
		t.Errorf("stored timestamp = %v, want the latest publish %v", objs[0].Timestamp, second)
	}
	if l.ObjectCount() != 1 {
		t.Errorf("ObjectCount() = %d, want 1", l.ObjectCount())
	}
}

func TestFilterCorrectness(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	now := time.Now()
	for station := uint32(1); station <= 4; station++ {
		publishCam(t, l, station, now, testCenter, time.Minute)
	}

	eq := filter.Comparison{Path: "header.stationID", Op: filter.Equal, Value: 2}
	objs, err := l.Query(&QueryRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM}, Filter: eq})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("EQUAL filter: %d objects, want 1", len(objs))
	}
	if v, _ := objs[0].Payload.Field("header.stationID"); v != uint32(2) {
		t.Errorf("EQUAL filter returned station %v, want 2", v)
	}

	// NOT_EQUAL is the complement within the valid set.
	ne := filter.Comparison{Path: "header.stationID", Op: filter.NotEqual, Value: 2}
	objs, err = l.Query(&QueryRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM}, Filter: ne})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(objs) != 3 {
		t.Fatalf("NOT_EQUAL filter: %d objects, want 3", len(objs))
	}
	for _, o := range objs {
		if v, _ := o.Payload.Field("header.stationID"); v == uint32(2) {
			t.Error("NOT_EQUAL filter returned the excluded station")
		}
	}
}

func TestStableOrdering(t *testing.T) {
	l := newTestLDM(t, nil)
	if err := l.RegisterProvider("cam-service", []its.TypeTag{its.TagCAM}, time.Minute); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	registerConsumer(t, l, "hmi")

	now := time.Now()
	// Stations 3, 1, 2 inserted in that order, all with equal speed: an
	// ascending speed sort must keep insertion order.
	for _, station := range []uint32{3, 1, 2} {
		publishCam(t, l, station, now, testCenter, time.Minute)
	}

	objs, err := l.Query(&QueryRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Order:         []filter.OrderBy{{Path: "speed", Direction: filter.Ascending}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	want := []uint32{3, 1, 2}
	if len(objs) != len(want) {
		t.Fatalf("%d objects, want %d", len(objs), len(want))
	}
	for i, w := range want {
		if v, _ := objs[i].Payload.Field("header.stationID"); v != w {
			t.Errorf("objs[%d] station = %v, want %d (ties must keep insertion order)", i, v, w)
		}
	}
}

func TestOrderingAscendingByField(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	now := time.Now()
	for _, station := range []uint32{5, 2, 9, 1} {
		publishCam(t, l, station, now, testCenter, time.Minute)
	}

	objs, err := l.Query(&QueryRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Order:         []filter.OrderBy{{Path: "header.stationID", Direction: filter.Ascending}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	var prev uint32
	for i, o := range objs {
		v, _ := o.Payload.Field("header.stationID")
		cur := v.(uint32)
		if i > 0 && cur < prev {
			t.Errorf("sequence not non-decreasing at %d: %d after %d", i, cur, prev)
		}
		prev = cur
	}
}

func TestQueryPriorityCapsResults(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	now := time.Now()
	for station := uint32(1); station <= 5; station++ {
		publishCam(t, l, station, now, testCenter, time.Minute)
	}

	objs, err := l.Query(&QueryRequest{
		ApplicationID: "hmi",
		Types:         []its.TypeTag{its.TagCAM},
		Order:         []filter.OrderBy{{Path: "header.stationID", Direction: filter.Descending}},
		Priority:      2,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("%d objects, want 2", len(objs))
	}
	if v, _ := objs[0].Payload.Field("header.stationID"); v != uint32(5) {
		t.Errorf("capped result must keep the ordered head, got station %v", v)
	}
}

func TestQueryAuthorization(t *testing.T) {
	l := newTestLDM(t, nil)
	registerConsumer(t, l, "hmi", its.TagCAM)

	_, err := l.Query(&QueryRequest{ApplicationID: "ghost", Types: []its.TypeTag{its.TagCAM}})
	if !errors.Is(err, model.ErrNotRegistered) {
		t.Errorf("unknown consumer error = %v, want ErrNotRegistered", err)
	}

	_, err = l.Query(&QueryRequest{ApplicationID: "hmi", Types: []its.TypeTag{its.TagCAM, its.TagDENM}})
	if !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("unpermitted tag error = %v, want ErrPermissionDenied", err)
	}

	_, err = l.Query(&QueryRequest{ApplicationID: "hmi", Types: nil})
	if !errors.Is(err, model.ErrInvalidParameters) {
		t.Errorf("empty types error = %v, want ErrInvalidParameters", err)
	}
}

func TestScenarioCamLifecycle(t *testing.T) {
	// Register provider P for CAM with default validity 5s. Publish one CAM
	// at t=100 with no override. Query at t=100.1 sees it, at t=106 it is
	// gone.
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, 5*time.Second)
	registerConsumer(t, l, "hmi")

	base := time.Now()
	l.now = func() time.Time { return base }

	err := l.Publish(&PublishRequest{
		ApplicationID: "cam-service",
		Type:          its.TagCAM,
		Timestamp:     base,
		Location:      testCenter,
		Payload: &its.Cam{
			Header:            its.ItsPduHeader{StationID: 1},
			ReferencePosition: its.ReferencePosition{Latitude: 413869310, Longitude: 21121040},
		},
		// No TimeValidity: provider default applies.
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	l.now = func() time.Time { return base.Add(100 * time.Millisecond) }
	objs := queryCam(t, l, "hmi")
	if len(objs) != 1 {
		t.Fatalf("query at t+0.1s: %d objects, want 1", len(objs))
	}
	if v, _ := objs[0].Payload.Field("header.stationID"); v != uint32(1) {
		t.Errorf("stationID = %v, want 1", v)
	}
	if objs[0].TimeValidity != 5*time.Second {
		t.Errorf("effective validity = %v, want the provider default 5s", objs[0].TimeValidity)
	}

	l.now = func() time.Time { return base.Add(6 * time.Second) }
	if objs := queryCam(t, l, "hmi"); len(objs) != 0 {
		t.Fatalf("query at t+6s: %d objects, want 0", len(objs))
	}
}

func TestReactiveQueryEvictsExpired(t *testing.T) {
	l := newTestLDM(t, &Config{
		Strategy:          StrategyReactive,
		AreaOfMaintenance: geo.Circle{Center: testCenter, Radius: 5000},
	})
	registerCamProvider(t, l, time.Second)
	registerConsumer(t, l, "hmi")

	base := time.Now()
	l.now = func() time.Time { return base }
	publishCam(t, l, 1, base, testCenter, time.Second)

	if l.ObjectCount() != 1 {
		t.Fatalf("ObjectCount() = %d, want 1", l.ObjectCount())
	}

	l.now = func() time.Time { return base.Add(2 * time.Second) }
	if objs := queryCam(t, l, "hmi"); len(objs) != 0 {
		t.Fatalf("expired object still returned")
	}
	// The read physically removed it.
	if l.ObjectCount() != 0 {
		t.Errorf("ObjectCount() after reactive read = %d, want 0", l.ObjectCount())
	}
}

func TestProactiveSweepEvicts(t *testing.T) {
	l := newTestLDM(t, &Config{
		Strategy:          StrategyProactive,
		SweepInterval:     time.Hour, // manual Sweep only, keep the test deterministic
		AreaOfMaintenance: geo.Circle{Center: testCenter, Radius: 5000},
	})
	registerCamProvider(t, l, time.Second)

	base := time.Now()
	l.now = func() time.Time { return base }
	publishCam(t, l, 1, base, testCenter, time.Second)
	publishCam(t, l, 2, base, farAway, time.Minute) // out of area from the start

	l.now = func() time.Time { return base.Add(2 * time.Second) }
	if n := l.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	if l.ObjectCount() != 0 {
		t.Errorf("ObjectCount() after sweep = %d, want 0", l.ObjectCount())
	}
	// Idempotent: nothing left to remove.
	if n := l.Sweep(); n != 0 {
		t.Errorf("second Sweep() = %d, want 0", n)
	}
}

func TestDeregisteredProviderCannotPublish(t *testing.T) {
	l := newTestLDM(t, nil)
	registerCamProvider(t, l, time.Minute)
	registerConsumer(t, l, "hmi")

	publishCam(t, l, 1, time.Now(), testCenter, time.Minute)

	if err := l.DeregisterProvider("cam-service"); err != nil {
		t.Fatalf("DeregisterProvider: %v", err)
	}

	err := l.Publish(&PublishRequest{
		ApplicationID: "cam-service",
		Type:          its.TagCAM,
		Timestamp:     time.Now(),
		Location:      testCenter,
		Payload:       &its.Cam{Header: its.ItsPduHeader{StationID: 2}},
	})
	if !errors.Is(err, model.ErrNotRegistered) {
		t.Errorf("publish after deregistration error = %v, want ErrNotRegistered", err)
	}

	// Already-stored objects remain until they expire.
	if got := queryCam(t, l, "hmi"); len(got) != 1 {
		t.Errorf("stored object vanished with its provider: %d objects, want 1", len(got))
	}
}

func TestConsumerAreaOfInterestScopesResults(t *testing.T) {
	l := newTestLDM(t, &Config{AreaOfMaintenance: geo.Circle{Center: testCenter, Radius: 500000}})
	registerCamProvider(t, l, time.Minute)

	// Narrow consumer: only cares about 1km around the center.
	if err := l.RegisterConsumer("narrow", []its.TypeTag{its.TagCAM}, geo.Circle{Center: testCenter, Radius: 1000}); err != nil {
		t.Fatalf("RegisterConsumer: %v", err)
	}
	registerConsumer(t, l, "wide")

	now := time.Now()
	publishCam(t, l, 1, now, testCenter, time.Minute)
	nearEdge := geo.Position{Latitude: testCenter.Latitude + 0.05, Longitude: testCenter.Longitude} // ~5.5km
	publishCam(t, l, 2, now, nearEdge, time.Minute)

	if got := queryCam(t, l, "wide"); len(got) != 2 {
		t.Fatalf("wide consumer: %d objects, want 2", len(got))
	}
	got := queryCam(t, l, "narrow")
	if len(got) != 1 {
		t.Fatalf("narrow consumer: %d objects, want 1", len(got))
	}
	if v, _ := got[0].Payload.Field("header.stationID"); v != uint32(1) {
		t.Errorf("narrow consumer got station %v, want 1", v)
	}
}
