// Package events defines the event types and the publish-subscribe bus
// that connects the rotation controller's components: map changes and
// catalogue refreshes flow from the registry and catalogue out to the
// telemetry publisher and webhook notifier.
package events

// EventType represents the type of event emitted through the EventBus.
type EventType string

const (
	// Rotation events
	EventMapChanged      EventType = "map_changed"
	EventMapChangeFailed EventType = "map_change_failed"

	// Catalogue events
	EventCatalogueRefreshed EventType = "catalogue_refreshed"

	// Notification events
	EventNotifyWebhook EventType = "notify_webhook"

	// System events
	EventShutdown EventType = "shutdown"
)

// Event is a single message on the bus.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// MapChangedPayload describes a successful map change on one server.
type MapChangedPayload struct {
	ServerIndex int    `json:"server_index"`
	ServerName  string `json:"server_name"`
	MapID       string `json:"map_id"`
	NewMap      string `json:"new_map"`
	Message     string `json:"message"`
}

// MapChangeFailedPayload describes a failed map change attempt.
type MapChangeFailedPayload struct {
	ServerIndex int    `json:"server_index"`
	ServerName  string `json:"server_name"`
	MapID       string `json:"map_id"`
	Reason      string `json:"reason"`
}

// CatalogueRefreshedPayload describes a map catalogue refresh.
type CatalogueRefreshedPayload struct {
	Layers  int      `json:"layers"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// NotifyWebhookPayload carries an operator notification.
type NotifyWebhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}
