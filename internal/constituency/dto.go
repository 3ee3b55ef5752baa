package constituency

import (
	"github.com/google/uuid"
)

// CivicRefDTO names one resolved level of the civic hierarchy.
type CivicRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ResolutionDTO is the outcome of resolving an IP address to the civic
// hierarchy. Civic references stay nil when the address falls outside the
// serviced country or no constituency matches the city.
type ResolutionDTO struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`

	State                     *CivicRefDTO `json:"state,omitempty"`
	District                  *CivicRefDTO `json:"district,omitempty"`
	AssemblyConstituency      *CivicRefDTO `json:"assembly_constituency,omitempty"`
	ParliamentaryConstituency *CivicRefDTO `json:"parliamentary_constituency,omitempty"`
}

// Resolved reports whether the full civic chain was matched.
func (r *ResolutionDTO) Resolved() bool {
	return r != nil && r.State != nil && r.District != nil &&
		r.AssemblyConstituency != nil && r.ParliamentaryConstituency != nil
}
