package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	id "profast/pkg/domain"
	"profast/pkg/platform/document"
)

type DeliveryStatus string

const (
	DeliveryCreated   DeliveryStatus = "created"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Parcel is a shipment record. Fields the caller sends beyond the typed set
// are kept in Attributes and written back verbatim on read. Known fields whose
// caller form does not survive the typed round trip (a numeric tracking_id, a
// free-text created_at, "2kg" as a weight) are kept in Verbatim and win over
// the typed value on encode.
type Parcel struct {
	ID             id.ParcelID
	TrackingID     string
	CreatedBy      string
	Title          string
	Type           string
	SenderRegion   string
	ReceiverRegion string
	ParcelWeight   *id.Number
	DeliveryCost   *id.Number
	DeliveryStatus DeliveryStatus
	PaymentStatus  PaymentStatus
	// CreatedAt orders listings. The caller's text, when it differs from the
	// RFC 3339 rendering, lives in Verbatim.
	CreatedAt  time.Time
	Attributes document.Attributes
	Verbatim   document.Attributes
}

// IsPaid reports whether the payment flow already flipped this parcel.
func (p *Parcel) IsPaid() bool {
	return p.PaymentStatus == PaymentPaid
}

// Summary is the fixed projection returned by list queries.
type Summary struct {
	ID             id.ParcelID    `json:"_id"`
	TrackingID     string         `json:"tracking_id"`
	CreatedBy      string         `json:"created_by,omitempty"`
	Title          string         `json:"title,omitempty"`
	Type           string         `json:"type,omitempty"`
	SenderRegion   string         `json:"senderRegion,omitempty"`
	ReceiverRegion string         `json:"receiverRegion,omitempty"`
	ParcelWeight   *id.Number     `json:"parcelWeight,omitempty"`
	DeliveryCost   *id.Number     `json:"deliveryCost,omitempty"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	CreatedAt      time.Time      `json:"created_at"`

	verbatim document.Attributes
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	base, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	return document.Overlay(base, s.verbatim)
}

func (p *Parcel) Summary() Summary {
	return Summary{
		ID:             p.ID,
		TrackingID:     p.TrackingID,
		CreatedBy:      p.CreatedBy,
		Title:          p.Title,
		Type:           p.Type,
		SenderRegion:   p.SenderRegion,
		ReceiverRegion: p.ReceiverRegion,
		ParcelWeight:   p.ParcelWeight,
		DeliveryCost:   p.DeliveryCost,
		DeliveryStatus: p.DeliveryStatus,
		PaymentStatus:  p.PaymentStatus,
		CreatedAt:      p.CreatedAt,
		verbatim:       p.Verbatim,
	}
}

// verbatimFields are the typed fields a caller may send in any JSON form.
// _id and payment_status are owned by the server and never kept.
var verbatimFields = []string{
	"tracking_id", "created_by", "title", "type", "senderRegion",
	"receiverRegion", "parcelWeight", "deliveryCost", "delivery_status",
	"created_at",
}

var knownFields = append([]string{"_id", "payment_status"}, verbatimFields...)

func (p Parcel) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(p.Summary())
	if err != nil {
		return nil, err
	}
	return document.Merge(base, p.Attributes)
}

// UnmarshalJSON decodes a caller document. Only the shape of the body is
// checked: any member that fails its typed decode is kept as sent. An "_id"
// or "payment_status" in the body is dropped.
func (p *Parcel) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("parcel must be a JSON object")
	}
	attrs, err := document.Split(b, knownFields...)
	if err != nil {
		return err
	}

	out := Parcel{Attributes: attrs}
	for key, raw := range fields {
		switch key {
		case "tracking_id":
			out.TrackingID = trackingText(raw)
		case "created_at":
			out.CreatedAt, _ = parseCreatedAt(raw)
		case "created_by":
			decodeInto(raw, &out.CreatedBy)
		case "title":
			decodeInto(raw, &out.Title)
		case "type":
			decodeInto(raw, &out.Type)
		case "senderRegion":
			decodeInto(raw, &out.SenderRegion)
		case "receiverRegion":
			decodeInto(raw, &out.ReceiverRegion)
		case "parcelWeight":
			decodeInto(raw, &out.ParcelWeight)
		case "deliveryCost":
			decodeInto(raw, &out.DeliveryCost)
		case "delivery_status":
			decodeInto(raw, &out.DeliveryStatus)
		}
	}

	verbatim, err := divergent(out.Summary(), fields)
	if err != nil {
		return err
	}
	out.Verbatim = verbatim
	*p = out
	return nil
}

// divergent returns the sent members that the typed summary would not
// reproduce byte for byte, including ones it would omit.
func divergent(s Summary, fields map[string]json.RawMessage) (document.Attributes, error) {
	type plain Summary
	base, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	var emitted map[string]json.RawMessage
	if err := json.Unmarshal(base, &emitted); err != nil {
		return nil, err
	}
	var out document.Attributes
	for _, key := range verbatimFields {
		raw, sent := fields[key]
		if !sent {
			continue
		}
		if got, ok := emitted[key]; ok && sameJSON(raw, got) {
			continue
		}
		if out == nil {
			out = document.Attributes{}
		}
		out[key] = raw
	}
	return out, nil
}

// StoredAttributes folds Verbatim into Attributes for a single document
// column. RestoreAttributes is its inverse.
func (p *Parcel) StoredAttributes() document.Attributes {
	if len(p.Verbatim) == 0 {
		return p.Attributes
	}
	return p.Attributes.With(p.Verbatim)
}

func (p *Parcel) RestoreAttributes(all document.Attributes) {
	p.Attributes, p.Verbatim = nil, nil
	for k, v := range all {
		if slices.Contains(verbatimFields, k) {
			if p.Verbatim == nil {
				p.Verbatim = document.Attributes{}
			}
			p.Verbatim[k] = v
			continue
		}
		if p.Attributes == nil {
			p.Attributes = document.Attributes{}
		}
		p.Attributes[k] = v
	}
}

// decodeInto sets *dst only when raw decodes cleanly.
func decodeInto[T any](raw json.RawMessage, dst *T) {
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

func sameJSON(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// trackingText is the text form of a tracking_id used for lookups. Strings
// are taken as is; null, empty objects and empty arrays count as missing.
func trackingText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return ""
	}
	switch text := compact.String(); text {
	case "null", "{}", "[]":
		return ""
	default:
		return text
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006, 3:04:05 PM",
}

// ParseTimestamp accepts RFC 3339, the common zone-less layouts and the
// en-US locale rendering ("7/14/2025, 10:00:00 AM"). Zone-less values are
// read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at %q is not a recognised timestamp", s)
}

// parseCreatedAt reads a created_at value as text or as Unix milliseconds.
// It returns the zero time when neither applies.
func parseCreatedAt(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := ParseTimestamp(s)
		return t, err == nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// ListFilter narrows a parcel listing. An empty CreatedBy lists every parcel.
type ListFilter struct {
	CreatedBy string
	Page      id.Page
}
