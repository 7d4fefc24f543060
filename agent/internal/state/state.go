package state

// Pairing is the progress of the pairing and action registration handshake.
type Pairing int

const (
	Idle Pairing = iota
	TransmissionReady
	Authorized
	RegisteringActions
	Ready
)

func (p Pairing) String() string {
	switch p {
	case Idle:
		return "idle"
	case TransmissionReady:
		return "transmission_ready"
	case Authorized:
		return "authorized"
	case RegisteringActions:
		return "registering_actions"
	case Ready:
		return "ready"
	default:
		return "invalid"
	}
}

// CanAdvance reports whether to is a legal successor of from. States only
// move forward; Authorized may go straight to Ready when there is nothing
// to register.
func CanAdvance(from, to Pairing) bool {
	switch from {
	case Idle:
		return to == TransmissionReady
	case TransmissionReady:
		return to == Authorized
	case Authorized:
		return to == RegisteringActions || to == Ready
	case RegisteringActions:
		return to == Ready
	}
	return false
}
