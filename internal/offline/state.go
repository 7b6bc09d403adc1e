package offline

// State is the lifecycle position of the asset cache manager.
type State string

const (
	StateNew        State = "new"
	StateInstalling State = "installing"
	// StateWaiting means a complete snapshot is stored but not yet controlling requests.
	StateWaiting    State = "waiting"
	StateActivating State = "activating"
	StateActivated  State = "activated"
	// StateRedundant follows a failed install. A later install may retry.
	StateRedundant State = "redundant"
)

func (s State) String() string {
	return string(s)
}

// canInstall reports whether an install may start from s.
func (s State) canInstall() bool {
	switch s {
	case StateNew, StateRedundant, StateWaiting, StateActivated:
		return true
	default:
		return false
	}
}
