package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	httperr "github.com/xcity-lab/telemetry/internal/core/errors"
	publishmocks "github.com/xcity-lab/telemetry/internal/mocks/publish"
	storagemocks "github.com/xcity-lab/telemetry/internal/mocks/storage"
)

const validAirBody = `{
	"id": "urn:ngsi-ld:Notification:1",
	"data": [{"id": "urn:ngsi-ld:AirQualityObserved:hcm-01", "pm25": {"value": 12.5}}],
	"notifiedAt": "2024-05-01T08:10:00+07:00"
}`

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) httperr.ErrorResponse {
	t.Helper()
	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestNotifyHandler_Success(t *testing.T) {
	store := storagemocks.NewReadingStore(t)
	pub := publishmocks.NewPublisher(t)
	store.EXPECT().
		Append(mock.Anything, mock.MatchedBy(func(r *v1.SensorReading) bool {
			return r.Class == "air-quality" && r.Value("pm25").Float64 == 12.5
		})).
		Return(nil).
		Once()
	pub.EXPECT().Publish(mock.Anything, "/topic/air-quality", mock.Anything).Return(nil).Once()

	r := newTestRouter(newTestService(t, store, nil, pub))
	resp := postJSON(r, "/api/v1/air/notify", validAirBody)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Received", resp.Body.String())
}

func TestNotifyHandler_TrafficRoute(t *testing.T) {
	store := storagemocks.NewReadingStore(t)
	pub := publishmocks.NewPublisher(t)
	store.EXPECT().
		Append(mock.Anything, mock.MatchedBy(func(r *v1.SensorReading) bool { return r.Class == "traffic" })).
		Return(nil).
		Once()
	pub.EXPECT().Publish(mock.Anything, "/topic/traffic", mock.Anything).Return(nil).Once()

	r := newTestRouter(newTestService(t, store, nil, pub))
	resp := postJSON(r, "/api/v1/traffic/notify",
		`{"data":[{"id":"cam-1","intensity":{"value":3}}],"notifiedAt":"2024-05-01T09:05:00Z"}`)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestNotifyHandler_InvalidJSON(t *testing.T) {
	r := newTestRouter(newTestService(t, storagemocks.NewReadingStore(t), nil, publishmocks.NewPublisher(t)))

	resp := postJSON(r, "/api/v1/air/notify", `{"data": [`)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, httperr.HttpInvalidPayloadError, decodeError(t, resp).ErrorType)
}

func TestNotifyHandler_MissingNotifiedAt(t *testing.T) {
	r := newTestRouter(newTestService(t, storagemocks.NewReadingStore(t), nil, publishmocks.NewPublisher(t)))

	resp := postJSON(r, "/api/v1/air/notify", `{"data":[{"id":"s-1"}]}`)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	body := decodeError(t, resp)
	require.Equal(t, httperr.HttpInvalidPayloadError, body.ErrorType)
	require.Equal(t, map[string]interface{}{"field": "notifiedAt", "reason": "missing"}, body.Details)
}

func TestNotifyHandler_StorageError(t *testing.T) {
	store := storagemocks.NewReadingStore(t)
	store.EXPECT().Append(mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	r := newTestRouter(newTestService(t, store, nil, publishmocks.NewPublisher(t)))
	resp := postJSON(r, "/api/v1/air/notify", validAirBody)

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	body := decodeError(t, resp)
	require.Equal(t, httperr.HttpStoreUnavailableError, body.ErrorType)
	require.Equal(t, "Failed to persist reading", body.Message)
}

func TestNotifyHandler_BodySizeLimit(t *testing.T) {
	r := newTestRouter(newTestService(t, storagemocks.NewReadingStore(t), nil, publishmocks.NewPublisher(t)))

	large := bytes.Repeat([]byte("a"), 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/air/notify", bytes.NewReader(large))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestNotifyHandler_UnknownRoute(t *testing.T) {
	r := newTestRouter(newTestService(t, storagemocks.NewReadingStore(t), nil, publishmocks.NewPublisher(t)))

	resp := postJSON(r, "/api/v1/noise/notify", validAirBody)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRegisterRoutes_RunsMiddlewareFirst(t *testing.T) {
	svc := newTestService(t, storagemocks.NewReadingStore(t), nil, publishmocks.NewPublisher(t))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r, func(c *gin.Context) {
		c.AbortWithStatus(http.StatusTooManyRequests)
	})

	resp := postJSON(r, "/air/notify", validAirBody)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
}
