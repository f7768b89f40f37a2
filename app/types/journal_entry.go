package types

import (
	"github.com/vibast-solutions/ms-go-journal/app/dto"
	"github.com/vibast-solutions/ms-go-journal/app/validation"

	"github.com/labstack/echo/v4"
)

type CreateJournalEntryRequest struct {
	Work      string `json:"work" validate:"required,max=256"`
	Struggle  string `json:"struggle" validate:"required,max=256"`
	Intention string `json:"intention" validate:"required,max=256"`
}

func NewCreateJournalEntryRequestFromContext(ctx echo.Context) (*CreateJournalEntryRequest, error) {
	var body CreateJournalEntryRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *CreateJournalEntryRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateJournalEntryRequest) Fields() dto.JournalEntryFields {
	return dto.JournalEntryFields{
		Work:      &r.Work,
		Struggle:  &r.Struggle,
		Intention: &r.Intention,
	}
}

// UpdateJournalEntryRequest is a partial update: absent fields keep their
// stored value, present ones must be 1..256 characters.
type UpdateJournalEntryRequest struct {
	Work      *string `json:"work,omitempty" validate:"omitempty,min=1,max=256"`
	Struggle  *string `json:"struggle,omitempty" validate:"omitempty,min=1,max=256"`
	Intention *string `json:"intention,omitempty" validate:"omitempty,min=1,max=256"`
}

func NewUpdateJournalEntryRequestFromContext(ctx echo.Context) (*UpdateJournalEntryRequest, error) {
	var body UpdateJournalEntryRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateJournalEntryRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateJournalEntryRequest) Fields() dto.JournalEntryFields {
	return dto.JournalEntryFields{
		Work:      r.Work,
		Struggle:  r.Struggle,
		Intention: r.Intention,
	}
}
