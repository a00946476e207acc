// internal/models/user.go
package models

type UserRole string

const (
	RoleCustomer     UserRole = "customer"
	RoleProfessional UserRole = "professional"
	RoleAdmin        UserRole = "admin"
)

// User carries the contact details needed for notification delivery.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Phone string   `json:"phone"`
	Role  UserRole `json:"role"`
}

// Professional is the scoring-relevant subset of a professional user.
type Professional struct {
	ID             string   `json:"id"`
	NCALevel       int      `json:"ncaLevel"`
	AverageRating  *float64 `json:"averageRating,omitempty"`
	TotalBids      int      `json:"totalBids"`
	SuccessfulBids int      `json:"successfulBids"`
}

// WithAward returns the profile after one more accepted bid. The award
// score is folded into the running average rating.
func (p Professional) WithAward(score float64) Professional {
	out := p
	out.TotalBids = p.TotalBids + 1
	out.SuccessfulBids = p.SuccessfulBids + 1

	avg := score
	if p.AverageRating != nil {
		avg = (*p.AverageRating*float64(out.TotalBids-1) + score) / float64(out.TotalBids)
	}
	out.AverageRating = &avg
	return out
}
