package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsPatient(t *testing.T) {
	require.True(t, (&UserRecord{UserType: "patient"}).IsPatient())
	require.True(t, (&UserRecord{}).IsPatient(), "untyped accounts count as patients")
	require.False(t, (&UserRecord{UserType: "doctor"}).IsPatient())
	require.False(t, (&UserRecord{UserType: "admin"}).IsPatient())
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	require.Equal(t, "Ama Serwaa", (&UserRecord{FullName: "Ama Serwaa", Email: "a@b.co"}).DisplayName())
	require.Equal(t, "a@b.co", (&UserRecord{FullName: "   ", Email: "a@b.co"}).DisplayName())
}

func TestPatchApplyTouchesOnlySetFields(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour)
	u := &UserRecord{FullName: "Ama", Location: "Accra", CreatedAt: created, UpdatedAt: created}

	loc := "Kumasi"
	notif := true
	patch := ProfilePatch{Location: &loc, Notifications: &notif}
	require.False(t, patch.IsZero())
	patch.Apply(u)

	require.Equal(t, "Kumasi", u.Location)
	require.True(t, u.Notifications)
	require.Equal(t, "Ama", u.FullName)
	require.True(t, u.UpdatedAt.After(created))
	require.Equal(t, created, u.CreatedAt)
}

func TestEmptyPatchIsZero(t *testing.T) {
	require.True(t, ProfilePatch{}.IsZero())
}

func TestCloneIsDeep(t *testing.T) {
	u := &UserRecord{ID: "user_1", FullName: "Ama"}
	c := u.Clone()
	c.FullName = "mutated"
	require.Equal(t, "Ama", u.FullName)

	var nilRec *UserRecord
	require.Nil(t, nilRec.Clone())
}
