package models

import (
	"encoding/json"
	"slices"

	id "profast/pkg/domain"
	"profast/pkg/platform/document"
)

type RiderStatus string

const (
	RiderPending  RiderStatus = "pending"
	RiderActive   RiderStatus = "active"
	RiderRejected RiderStatus = "rejected"
)

func (s RiderStatus) Valid() bool {
	return slices.Contains([]RiderStatus{RiderPending, RiderActive, RiderRejected}, s)
}

// Rider is an application to deliver parcels. Application details beyond name
// and email are kept verbatim in Attributes.
type Rider struct {
	ID         id.RiderID
	Email      string
	Name       string
	Status     RiderStatus
	Attributes document.Attributes
}

var riderFields = []string{"_id", "email", "name", "status"}

type riderWire struct {
	ID     id.RiderID  `json:"_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name,omitempty"`
	Status RiderStatus `json:"status"`
}

func (r Rider) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(riderWire{ID: r.ID, Email: r.Email, Name: r.Name, Status: r.Status})
	if err != nil {
		return nil, err
	}
	return document.Merge(base, r.Attributes)
}

// UnmarshalJSON decodes an application; "_id" and "status" from the caller are
// ignored.
func (r *Rider) UnmarshalJSON(b []byte) error {
	var w struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	attrs, err := document.Split(b, riderFields...)
	if err != nil {
		return err
	}
	*r = Rider{Email: w.Email, Name: w.Name, Attributes: attrs}
	return nil
}

// RiderFilter lists riders; an empty Status or "all" lists every application.
type RiderFilter struct {
	Status RiderStatus
	Page   id.Page
}

func (f RiderFilter) Matches(r *Rider) bool {
	return f.Status == "" || f.Status == "all" || r.Status == f.Status
}

// StatusUpdate is the admin body for PATCH /riders/{id}.
type StatusUpdate struct {
	Status RiderStatus `json:"status"`
	Email  string      `json:"email"`
}
