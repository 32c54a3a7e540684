package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitStatusNext(t *testing.T) {
	assert.Equal(t, VisitWaitingDoctor, VisitWaitingVitals.Next())
	assert.Equal(t, VisitWaitingBilling, VisitWaitingDoctor.Next())
	assert.Equal(t, VisitCompleted, VisitWaitingBilling.Next())
	assert.Equal(t, VisitStatus(""), VisitCompleted.Next())
	assert.Equal(t, VisitStatus(""), VisitCancelled.Next())
}

func TestVisitStatusTerminal(t *testing.T) {
	assert.False(t, VisitWaitingVitals.Terminal())
	assert.False(t, VisitWaitingDoctor.Terminal())
	assert.False(t, VisitWaitingBilling.Terminal())
	assert.True(t, VisitCompleted.Terminal())
	assert.True(t, VisitCancelled.Terminal())
}

func TestRoleInvitable(t *testing.T) {
	assert.True(t, Invitable(RoleDoctor))
	assert.True(t, Invitable(RoleNurse))
	assert.True(t, Invitable(RoleReceptionist))
	assert.False(t, Invitable(RoleOwner))
	assert.False(t, Invitable(Role("janitor")))
}

func TestMedicationListRoundTrip(t *testing.T) {
	list := MedicationList{{Name: "Paracetamol", Dosage: "500mg", Frequency: "TID"}}

	value, err := list.Value()
	assert.NoError(t, err)

	var decoded MedicationList
	assert.NoError(t, decoded.Scan(value))
	assert.Equal(t, list, decoded)

	var fromNull MedicationList
	assert.NoError(t, fromNull.Scan(nil))
	assert.Nil(t, fromNull)
}
