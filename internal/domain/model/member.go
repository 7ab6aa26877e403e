package model

import (
	"time"

	"gym-membership-platform/internal/domain"

	"github.com/google/uuid"
)

// ActiveMembership is the single active-membership pointer a member carries.
// PlanID and PaymentID are either both set or both nil; the pair is only
// written by the payment reconciliation path and the expiration sweeper.
type ActiveMembership struct {
	PlanID    *string
	PaymentID *string
}

func (a ActiveMembership) IsSet() bool { return a.PlanID != nil && a.PaymentID != nil }

// Member is a gym member (the paying user).
type Member struct {
	ID               string
	GymID            string
	Name             string
	Email            string
	ActiveMembership ActiveMembership
	RegisteredAt     time.Time
}

func (m *Member) IsZero() bool { return m == nil || m.ID == "" }

func NewMember(id, gymID, name, email string) (*Member, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if gymID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Member{
		ID:           id,
		GymID:        gymID,
		Name:         name,
		Email:        email,
		RegisteredAt: time.Now(),
	}, nil
}
