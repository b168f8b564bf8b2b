package models

import (
	"encoding/json"
	"time"

	id "profast/pkg/domain"
	"profast/pkg/platform/document"
)

// Event is one immutable entry in a parcel's tracking history. Metadata holds
// every caller field besides tracking_id and status.
type Event struct {
	ID         id.EventID
	TrackingID string
	Status     string
	Timestamp  time.Time
	Metadata   document.Attributes
}

var knownFields = []string{"_id", "tracking_id", "status", "timestamp"}

type wire struct {
	ID         id.EventID `json:"_id"`
	TrackingID string     `json:"tracking_id"`
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(wire{
		ID:         e.ID,
		TrackingID: e.TrackingID,
		Status:     e.Status,
		Timestamp:  e.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	return document.Merge(base, e.Metadata)
}

// UnmarshalJSON reads a caller event. Any "_id" or "timestamp" sent is
// discarded; both are assigned on append.
func (e *Event) UnmarshalJSON(b []byte) error {
	var w struct {
		TrackingID string `json:"tracking_id"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	meta, err := document.Split(b, knownFields...)
	if err != nil {
		return err
	}
	*e = Event{TrackingID: w.TrackingID, Status: w.Status, Metadata: meta}
	return nil
}

// Query selects one tracking history.
type Query struct {
	TrackingID string
	Page       id.Page
}
