package domain

import "time"

// Instance is the server's own identity, created on first boot and
// advertised over mDNS so clients on the local network can find it.
type Instance struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SetupDone  bool      `json:"setup_done"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewInstance creates an unconfigured instance.
func NewInstance(id, name string) *Instance {
	now := time.Now()
	return &Instance{
		ID:         id,
		Name:       name,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}
