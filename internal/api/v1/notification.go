package v1

// Notification is the payload a context broker POSTs when a subscribed entity changes.
//
// Only the first entity of Data is consumed. Entity attributes are kept loosely typed
// because brokers emit them either as bare values or as NGSI-LD property objects
// ({"type": "Property", "value": 12.5}).
type Notification struct {
	// ID is the broker-assigned notification id (informational only).
	ID string `json:"id,omitempty"`

	// SubscriptionID identifies the broker subscription that fired (informational only).
	SubscriptionID string `json:"subscriptionId,omitempty"`

	// Data holds the notified entities. Each entity carries at least an "id".
	Data []map[string]interface{} `json:"data"`

	// NotifiedAt is an ISO-8601 datetime with offset; it becomes the reading's observation instant.
	NotifiedAt string `json:"notifiedAt"`
}
