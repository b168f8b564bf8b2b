// Package domain holds identifier types and small value objects shared by every
// bounded context (parcels, tracking, payments, directory).
//
// Each document kind has its own ID type so a ParcelID can never be passed where
// a RiderID is expected. All of them are UUIDs generated by the store layer and
// serialize as strings.
package domain

import (
	"github.com/google/uuid"

	dErrors "profast/pkg/domain-errors"
)

type (
	UserID    uuid.UUID
	ParcelID  uuid.UUID
	PaymentID uuid.UUID
	EventID   uuid.UUID
	RiderID   uuid.UUID
)

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewParcelID() ParcelID   { return ParcelID(uuid.New()) }
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }
func NewEventID() EventID     { return EventID(uuid.New()) }
func NewRiderID() RiderID     { return RiderID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseID(s, "user")
	return UserID(u), err
}

func ParseParcelID(s string) (ParcelID, error) {
	u, err := parseID(s, "parcel")
	return ParcelID(u), err
}

func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseID(s, "payment")
	return PaymentID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseID(s, "event")
	return EventID(u), err
}

func ParseRiderID(s string) (RiderID, error) {
	u, err := parseID(s, "rider")
	return RiderID(u), err
}

func parseID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ParcelID) String() string  { return uuid.UUID(id).String() }
func (id PaymentID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string   { return uuid.UUID(id).String() }
func (id RiderID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ParcelID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RiderID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ParcelID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id RiderID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ParcelID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PaymentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RiderID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
