package entity

import (
	"strings"
	"time"
)

// Origin identifies which credential store owns a record. Routing decisions
// match on this tag; the shape of the id is never consulted.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// UserType enumerates account kinds. Every account created through this
// portal is a patient; other kinds exist only on the remote provider side
// and are rejected at sign-in.
const UserTypePatient = "patient"

// UserRecord is the canonical representation of a registered patient account
// and profile. Optional profile fields are independently nullable and default
// to their zero values when the remote profile row could not be fetched.
type UserRecord struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Origin Origin `json:"origin"`

	// PasswordSecret is stored in cleartext and only for local-origin
	// records; the remote provider owns credential verification for its
	// accounts. Unsafe outside the throwaway local fallback store.
	PasswordSecret string `json:"password,omitempty"`

	FullName      string `json:"full_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Age           int    `json:"age,omitempty"`
	Location      string `json:"location,omitempty"`
	Gender        string `json:"gender,omitempty"`
	BloodType     string `json:"blood_type,omitempty"`
	AvatarRef     string `json:"avatar_ref,omitempty"`
	Notifications bool   `json:"notifications,omitempty"`
	Active        bool   `json:"active"`
	UserType      string `json:"user_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPatient reports whether the record may hold a portal session. An unset
// type counts as patient: remote accounts predating the profiles table carry
// no type at all.
func (u *UserRecord) IsPatient() bool {
	return u.UserType == "" || u.UserType == UserTypePatient
}

// DisplayName returns the name shown in the UI header and sidebar.
func (u *UserRecord) DisplayName() string {
	if n := strings.TrimSpace(u.FullName); n != "" {
		return n
	}
	return u.Email
}

// Clone returns a deep copy so callers can hand records across boundaries
// without sharing mutable state.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ProfilePatch carries a partial profile update. Nil fields are left
// untouched by whichever store applies the patch.
type ProfilePatch struct {
	FullName      *string `json:"full_name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Location      *string `json:"location,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	BloodType     *string `json:"blood_type,omitempty"`
	AvatarRef     *string `json:"avatar_ref,omitempty"`
	Notifications *bool   `json:"notifications,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p ProfilePatch) IsZero() bool {
	return p.FullName == nil && p.Phone == nil && p.Age == nil &&
		p.Location == nil && p.Gender == nil && p.BloodType == nil &&
		p.AvatarRef == nil && p.Notifications == nil
}

// Apply merges the patch into u and bumps UpdatedAt.
func (p ProfilePatch) Apply(u *UserRecord) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.BloodType != nil {
		u.BloodType = *p.BloodType
	}
	if p.AvatarRef != nil {
		u.AvatarRef = *p.AvatarRef
	}
	if p.Notifications != nil {
		u.Notifications = *p.Notifications
	}
	u.UpdatedAt = time.Now().UTC()
}
