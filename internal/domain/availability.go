package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AvailabilitySlot is a recurring weekly open-hours window [StartTime, EndTime).
type AvailabilitySlot struct {
	bun.BaseModel `bun:"table:availability_slots"`

	ID         uuid.UUID    `bun:"id,pk,type:uuid"`
	ProviderID uuid.UUID    `bun:"provider_id,notnull,type:uuid"`
	DayOfWeek  time.Weekday `bun:"day_of_week,notnull"`
	StartTime  TimeOfDay    `bun:"start_time,notnull,type:time"`
	EndTime    TimeOfDay    `bun:"end_time,notnull,type:time"`
	IsActive   bool         `bun:"is_active,notnull"`
	CreatedAt  time.Time    `bun:"created_at,notnull"`
}

func (s *AvailabilitySlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &s.ID, &s.CreatedAt, nil)
}

func (s AvailabilitySlot) Overlaps(other AvailabilitySlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	return s.StartTime < other.EndTime && s.EndTime > other.StartTime
}

// Admits is the inclusive membership test used when admitting a booking.
func (s AvailabilitySlot) Admits(t TimeOfDay) bool {
	return s.StartTime <= t && t <= s.EndTime
}

func ValidDayOfWeek(day int) bool {
	return day >= int(time.Sunday) && day <= int(time.Saturday)
}

type BlockedDate struct {
	bun.BaseModel `bun:"table:blocked_dates"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	ProviderID  uuid.UUID `bun:"provider_id,notnull,type:uuid"`
	BlockedDate Date      `bun:"blocked_date,notnull,type:date"`
	Reason      *string   `bun:"reason"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (b *BlockedDate) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &b.ID, &b.CreatedAt, nil)
}
