package enums

// PresenceEventType labels connection events arriving from the socket gateway.
type PresenceEventType string

const (
	PresenceEventConnected    PresenceEventType = "connected"
	PresenceEventDisconnected PresenceEventType = "disconnected"
)

// IsValid reports whether the value is a known PresenceEventType.
func (p PresenceEventType) IsValid() bool {
	return p == PresenceEventConnected || p == PresenceEventDisconnected
}

// AnalyticsEventType labels events mirrored to the warehouse.
type AnalyticsEventType string

const (
	AnalyticsEventSessionStarted AnalyticsEventType = "session_started"
)

// IsValid reports whether the value is a known AnalyticsEventType.
func (a AnalyticsEventType) IsValid() bool {
	return a == AnalyticsEventSessionStarted
}
