package model

import (
	"time"

	"gym-membership-platform/internal/domain"
)

// Gym is the tenant. Every plan, member and payment belongs to exactly one gym.
type Gym struct {
	ID        string
	Name      string
	Timezone  string // IANA name, e.g. "Asia/Dhaka"
	CreatedAt time.Time
}

func (g *Gym) IsZero() bool { return g == nil || g.ID == "" }

// Location resolves the gym's timezone, falling back to UTC when the
// stored name is empty or unknown.
func (g *Gym) Location() *time.Location {
	if g == nil || g.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NewGym(id, name, timezone string) (*Gym, error) {
	if id == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, domain.ErrInvalidArgument
		}
	}
	return &Gym{ID: id, Name: name, Timezone: timezone, CreatedAt: time.Now()}, nil
}
