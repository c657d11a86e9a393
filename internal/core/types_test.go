package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		conf float64
		want Severity
	}{
		{0.0, SeverityLow},
		{0.59, SeverityLow},
		{0.6, SeverityMedium},
		{0.74, SeverityMedium},
		{0.75, SeverityHigh},
		{0.89, SeverityHigh},
		{0.9, SeverityCritical},
		{1.0, SeverityCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SeverityFor(c.conf), "conf=%v", c.conf)
	}
}

func TestOnlyResolvedIsTerminal(t *testing.T) {
	assert.True(t, StatusResolved.Terminal())
	assert.False(t, StatusActive.Terminal())
	assert.False(t, StatusAcknowledged.Terminal())
	assert.False(t, StatusDispatched.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
}

func TestSubtypeClassification(t *testing.T) {
	assert.Equal(t, ClipClassViolence, SubtypeViolence.Class())
	assert.Equal(t, ClipClassViolence, SubtypeNoViolence.Class())
	assert.Equal(t, ClipClassCrash, SubtypeCrash.Class())
	assert.Equal(t, ClipClassCrash, SubtypeNoCrash.Class())

	assert.True(t, SubtypeViolence.Incident())
	assert.True(t, SubtypeCrash.Incident())
	assert.False(t, SubtypeNoViolence.Incident())
	assert.False(t, SubtypeNoCrash.Incident())
}

func TestIncidentCloneIsIndependent(t *testing.T) {
	inc := &Incident{ID: "INC-1", DispatchedTo: []string{"SEC-101"}}
	clone := inc.Clone()

	clone.DispatchedTo = append(clone.DispatchedTo, "SEC-102")
	clone.Status = StatusResolved

	assert.Equal(t, []string{"SEC-101"}, inc.DispatchedTo)
	assert.Empty(t, inc.Status)
}
