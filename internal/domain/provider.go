package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ProviderType string

const (
	ProviderTypeDoctor    ProviderType = "doctor"
	ProviderTypeSalon     ProviderType = "salon"
	ProviderTypeCarRental ProviderType = "car-rental"
)

func (t ProviderType) Valid() bool {
	switch t {
	case ProviderTypeDoctor, ProviderTypeSalon, ProviderTypeCarRental:
		return true
	}
	return false
}

type Provider struct {
	bun.BaseModel `bun:"table:providers"`

	ID           uuid.UUID    `bun:"id,pk,type:uuid"`
	UserID       string       `bun:"user_id,notnull"`
	ProviderType ProviderType `bun:"provider_type,notnull"`
	DisplayName  string       `bun:"display_name,notnull"`
	Bio          string       `bun:"bio"`
	CreatedAt    time.Time    `bun:"created_at,notnull"`
	UpdatedAt    time.Time    `bun:"updated_at,notnull"`
}

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID          uuid.UUID       `bun:"id,pk,type:uuid"`
	ProviderID  uuid.UUID       `bun:"provider_id,notnull,type:uuid"`
	Name        string          `bun:"name,notnull"`
	Description string          `bun:"description"`
	Price       decimal.Decimal `bun:"price,notnull,type:numeric(10,2)"`
	CreatedAt   time.Time       `bun:"created_at,notnull"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull"`
}

func (p *Provider) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// stampModel assigns a UUIDv7 and timestamps on insert and bumps updatedAt on
// update. A nil updatedAt means the table has no such column.
func stampModel(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt != nil && updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		if updatedAt != nil {
			*updatedAt = now
		}
	}
	return nil
}
