package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	httperr "github.com/xcity-lab/telemetry/internal/core/errors"
	"github.com/xcity-lab/telemetry/internal/metrics"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgReceived       = "Received"
)

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// NotifyHandler handles broker notifications for one sensor class.
func (s *Service) NotifyHandler(class aggregation.SensorClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, payloadSize, perr := s.parseNotification(c)
		if perr != nil {
			metrics.NotificationsRejected.WithLabelValues(class.Name, "malformed").Inc()
			writeError(c, perr)
			return
		}

		reading, err := s.Ingest(c.Request.Context(), class, n)
		if err != nil {
			writeError(c, classifyIngestError(class, err))
			return
		}

		slog.Info("Received notification",
			"class", class.Name,
			"sensor_id", reading.SensorID,
			"observed_at", reading.ObservedAt,
			"payload_size", payloadSize)

		c.String(http.StatusOK, msgReceived)
	}
}

// parseNotification reads the bounded request body and binds it.
func (s *Service) parseNotification(c *gin.Context) (*v1.Notification, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidPayloadError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var n v1.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidPayloadError,
			message:    msgInvalidJSON,
		}
	}
	return &n, len(bodyBytes), nil
}

func classifyIngestError(class aggregation.SensorClass, err error) *ingestionError {
	status, errorType := httperr.Classify(err, httperr.HttpInvalidPayloadError)
	ie := &ingestionError{statusCode: status, errorType: errorType, message: err.Error()}

	var nerr *NormalizationError
	switch {
	case errors.As(err, &nerr):
		slog.Warn("Notification rejected", "class", class.Name, "field", nerr.Field, "reason", nerr.Reason)
		ie.details = map[string]interface{}{"field": nerr.Field, "reason": nerr.Reason}
	case status == http.StatusNotFound:
		slog.Warn("Notification for unknown device rejected", "class", class.Name, "error", err)
	case status >= http.StatusInternalServerError:
		slog.Error("Failed to ingest notification", "class", class.Name, "error", err)
		ie.message = "Failed to persist reading"
	}
	return ie
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
