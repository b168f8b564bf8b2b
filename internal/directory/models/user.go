package models

import (
	"encoding/json"
	"slices"

	id "profast/pkg/domain"
	"profast/pkg/platform/document"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleRider  Role = "rider"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

var roles = []Role{RoleAdmin, RoleEditor, RoleRider, RoleUser}

func (r Role) Valid() bool {
	return slices.Contains(roles, r)
}

// User is a registered account keyed by email. Profile fields the model does
// not name, created_at and last_log_in among them, live in Attributes.
type User struct {
	ID          id.UserID
	Email       string
	Role        Role
	DisplayName string
	Attributes  document.Attributes
}

// Summary is the search projection.
type Summary struct {
	ID          id.UserID `json:"_id"`
	DisplayName string    `json:"displayName,omitempty"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email, Role: u.EffectiveRole()}
}

// EffectiveRole falls back to user for accounts stored without a role.
func (u *User) EffectiveRole() Role {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

var userFields = []string{"_id", "email", "role", "displayName"}

type userWire struct {
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
}

func (u User) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(u.Summary())
	if err != nil {
		return nil, err
	}
	return document.Merge(base, u.Attributes)
}

func (u *User) UnmarshalJSON(b []byte) error {
	var w userWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	attrs, err := document.Split(b, userFields...)
	if err != nil {
		return err
	}
	*u = User{Email: w.Email, Role: w.Role, DisplayName: w.DisplayName, Attributes: attrs}
	return nil
}

// Patch is a self-update body: every member is merged into the profile.
type Patch map[string]json.RawMessage

// Locked reports the first field a user may not change about themselves.
// Resending the profile's own email is allowed; Apply ignores it.
func (p Patch) Locked(email string) (string, bool) {
	for _, k := range []string{"_id", "email", "role"} {
		v, ok := p[k]
		if !ok {
			continue
		}
		if k == "email" {
			var sent string
			if json.Unmarshal(v, &sent) == nil && sent == email {
				continue
			}
		}
		return k, true
	}
	return "", false
}

// Apply merges p into u and reports whether anything changed.
func (u *User) Apply(p Patch) (bool, error) {
	changed := false
	attrs := document.Attributes{}
	for k, v := range p {
		if k == "email" {
			continue
		}
		if k == "displayName" {
			var name string
			if err := json.Unmarshal(v, &name); err != nil {
				return false, err
			}
			if name != u.DisplayName {
				u.DisplayName = name
				changed = true
			}
			continue
		}
		if prev, ok := u.Attributes[k]; !ok || string(prev) != string(v) {
			changed = true
		}
		attrs[k] = v
	}
	if len(attrs) > 0 {
		u.Attributes = u.Attributes.With(attrs)
	}
	return changed, nil
}

type SearchQuery struct {
	Text  string
	Limit int
}
