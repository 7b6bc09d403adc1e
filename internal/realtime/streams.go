package realtime

// Named realtime streams.
const (
	StreamOffline      = "offline"
	StreamCombinations = "combinations"
)

// Events published on the named streams.
const (
	EventActivated          = "activated"
	EventCombinationSaved   = "saved"
	EventCombinationDeleted = "deleted"
)

// OfflineNotifier broadcasts snapshot activation so open pages reload from the new version.
type OfflineNotifier struct {
	hub *Hub
}

// NewOfflineNotifier wraps hub.
func NewOfflineNotifier(hub *Hub) *OfflineNotifier {
	return &OfflineNotifier{hub: hub}
}

// VersionActivated publishes the activated tag and the evicted snapshots.
func (n *OfflineNotifier) VersionActivated(tag string, purged []string) {
	if n == nil || n.hub == nil {
		return
	}
	if purged == nil {
		purged = []string{}
	}
	n.hub.BroadcastStream(StreamOffline, Message{
		Event: EventActivated,
		Data: map[string]any{
			"tag":    tag,
			"purged": purged,
		},
	})
}
