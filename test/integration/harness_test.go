package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	"github.com/xcity-lab/telemetry/internal/core/storage"
	"github.com/xcity-lab/telemetry/internal/ingestion"
	"github.com/xcity-lab/telemetry/internal/projection"
	"github.com/xcity-lab/telemetry/internal/publish"
	"github.com/xcity-lab/telemetry/internal/server"
)

type integrationHarness struct {
	baseURL    string
	client     *http.Client
	hub        *publish.Hub
	recorder   *recordingPublisher
	cancel     context.CancelFunc
	serverDone chan error
}

// recordingPublisher counts publish calls and can be told to fail.
type recordingPublisher struct {
	mu       sync.Mutex
	readings []*v1.SensorReading
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, reading *v1.SensorReading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = append(p.readings, reading)
	return p.err
}

func (p *recordingPublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.readings)
}

func (p *recordingPublisher) last() *v1.SensorReading {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.readings) == 0 {
		return nil
	}
	return p.readings[len(p.readings)-1]
}

func (p *recordingPublisher) failWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (h *integrationHarness) close(t *testing.T) {
	t.Helper()

	h.cancel()
	h.hub.Close()
	select {
	case err := <-h.serverDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Log("server shutdown timed out")
	}
}

func startHarness(t *testing.T, store storage.ReadingStore, devices storage.DeviceDirectory) *integrationHarness {
	t.Helper()

	catalog, err := aggregation.NewCatalog(aggregation.BuiltinClasses()...)
	require.NoError(t, err)
	plus7, err := aggregation.ParseTimezone("+07:00")
	require.NoError(t, err)

	hub := publish.NewHub(16, nil)
	recorder := &recordingPublisher{}
	fanout := publish.NewFanout()
	fanout.Add("websocket", hub)
	fanout.Add("recorder", recorder)

	ingestionSvc := ingestion.NewService(catalog, store, devices, fanout, time.Second, 1)
	projectionSvc := projection.NewService(catalog, store, devices, plus7, 10)

	addr := fmt.Sprintf("127.0.0.1:%d", freePort(t))
	httpServer := server.New(addr, store, "release")
	api := httpServer.API()
	ingestionSvc.RegisterRoutes(api, server.RateLimit(0, 0))
	projectionSvc.RegisterRoutes(api)
	httpServer.MountSubscriptions(hub)

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- httpServer.Run(ctx) }()

	baseURL := "http://" + addr
	waitForHealthy(t, baseURL)

	h := &integrationHarness{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		hub:        hub,
		recorder:   recorder,
		cancel:     cancel,
		serverDone: serverDone,
	}
	t.Cleanup(func() { h.close(t) })
	return h
}

func waitForHealthy(t *testing.T, baseURL string) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server did not become healthy at %s", baseURL)
}

func postJSON(t *testing.T, client *http.Client, endpoint string, body string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func getJSON(t *testing.T, client *http.Client, endpoint string, dst interface{}) int {
	t.Helper()

	resp, err := client.Get(endpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode == http.StatusOK && dst != nil {
		require.NoError(t, json.Unmarshal(body, dst), string(body))
	}
	return resp.StatusCode
}

func notification(sensorID, notifiedAt string, fields string) string {
	return fmt.Sprintf(`{"id":"urn:ngsi-ld:Notification:%s","data":[{"id":%q,%s}],"notifiedAt":%q}`,
		notifiedAt, sensorID, fields, notifiedAt)
}

func subscribe(t *testing.T, h *integrationHarness, topic string) *websocket.Conn {
	t.Helper()

	before := h.hub.Clients()
	url := "ws" + strings.TrimPrefix(h.baseURL, "http") + "/api/v1/ws?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.hub.Clients() == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

type statisticsBody struct {
	SensorID   string                   `json:"sensorId"`
	RefDevice  string                   `json:"refDevice"`
	DataPoints []map[string]interface{} `json:"dataPoints"`
}
