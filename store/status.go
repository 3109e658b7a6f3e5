package store

type FederationStatus string

const (
	StatusIdle     FederationStatus = "idle"
	StatusCreating FederationStatus = "creating"
	StatusJoining  FederationStatus = "joining"
	StatusActive   FederationStatus = "active"
	StatusError    FederationStatus = "error"
)

var transitions = map[FederationStatus][]FederationStatus{
	StatusIdle:     {StatusCreating, StatusJoining, StatusError},
	StatusCreating: {StatusActive, StatusError},
	StatusJoining:  {StatusActive, StatusError},
	StatusActive:   {StatusError},
	StatusError:    {StatusIdle, StatusError},
}

func (s FederationStatus) Valid() bool {
	_, ok := transitions[s]

	return ok
}

// CanTransition reports whether the lifecycle may move from s to next.
func (s FederationStatus) CanTransition(next FederationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Pending reports whether a lifecycle operation is outstanding.
func (s FederationStatus) Pending() bool {
	return s == StatusCreating || s == StatusJoining
}
