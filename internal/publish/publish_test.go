package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guregu/null"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
	publishmocks "github.com/xcity-lab/telemetry/internal/mocks/publish"
)

func testReading() *v1.SensorReading {
	return &v1.SensorReading{
		ID:         "r-1",
		SensorID:   "urn:ngsi-ld:AirQualityObserved:hcm-01",
		Class:      "air-quality",
		ObservedAt: time.Date(2024, 5, 1, 1, 10, 0, 0, time.UTC),
		Fields: []v1.FieldValue{
			{Name: "pm25", Value: null.FloatFrom(12.5)},
			{Name: "o3", Value: null.Float{}},
		},
	}
}

func dialHub(t *testing.T, hub *Hub, topic string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("topic"))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DeliversFrameToTopicSubscribers(t *testing.T) {
	hub := NewHub(4, nil)
	defer hub.Close()

	air := dialHub(t, hub, "/topic/air-quality")
	traffic := dialHub(t, hub, "/topic/traffic")
	waitForClients(t, hub, 2)

	require.NoError(t, hub.Publish(context.Background(), "/topic/air-quality", testReading()))

	air.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := air.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(msg, &frame))
	require.Equal(t, "/topic/air-quality", frame.Topic)
	require.JSONEq(t,
		`{"id":"r-1","sensorId":"urn:ngsi-ld:AirQualityObserved:hcm-01","type":"air-quality","observedAt":"2024-05-01T01:10:00Z","pm25":12.5,"o3":null}`,
		string(frame.Payload))

	traffic.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = traffic.ReadMessage()
	require.Error(t, err, "traffic subscriber must not receive air-quality frames")
}

func TestHub_PublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub(1, nil)
	defer hub.Close()

	dialHub(t, hub, "") // never reads
	waitForClients(t, hub, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = hub.Publish(context.Background(), "/topic/air-quality", testReading())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHub_CloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(4, nil)
	conn := dialHub(t, hub, "")
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Close())
	require.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(4, []string{"https://dashboard.example"})
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "")
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	reading := testReading()
	ok := publishmocks.NewPublisher(t)
	ok.EXPECT().Publish(mock.Anything, "/topic/air-quality", reading).Return(nil).Once()
	failing := publishmocks.NewPublisher(t)
	failing.EXPECT().Publish(mock.Anything, "/topic/air-quality", reading).Return(errors.New("broker down")).Once()

	f := NewFanout()
	f.Add("failing", failing)
	f.Add("ok", ok)
	require.Equal(t, 2, f.Len())

	err := f.Publish(context.Background(), "/topic/air-quality", reading)
	require.ErrorIs(t, err, coreerr.ErrPublish)
	require.ErrorContains(t, err, "failing: broker down")
}

func TestFanout_EmptyIsNoop(t *testing.T) {
	require.NoError(t, NewFanout().Publish(context.Background(), "/topic/traffic", testReading()))
}

func TestRoutingKey(t *testing.T) {
	require.Equal(t, "topic.air-quality", RoutingKey("/topic/air-quality"))
	require.Equal(t, "topic.traffic", RoutingKey("topic/traffic"))
}

func TestRedisPublisher_ChannelAndFailure(t *testing.T) {
	p := &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		}),
		prefix: "xcity:",
	}
	defer p.Close()

	require.Equal(t, "xcity:/topic/traffic", p.Channel("/topic/traffic"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := p.Publish(ctx, "/topic/traffic", testReading())
	require.ErrorContains(t, err, "redis publish xcity:/topic/traffic")
}
