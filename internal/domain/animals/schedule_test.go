package animals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReschedule_HealthCheckFromLastAppendedRecord(t *testing.T) {
	jan := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)

	// el último agregado manda aunque tenga fecha anterior
	a := Animal{MedicalRecords: []MedicalRecord{{Date: mar}, {Date: jan}}}
	Reschedule(&a, 0)

	require.NotNil(t, a.LastHealthCheck)
	require.NotNil(t, a.NextHealthCheck)
	assert.Equal(t, jan, *a.LastHealthCheck)
	assert.Equal(t, time.Date(2026, 7, 10, 8, 0, 0, 0, time.UTC), *a.NextHealthCheck)
}

func TestReschedule_NoRecordsNoDates(t *testing.T) {
	stale := time.Now()
	a := Animal{NextHealthCheck: &stale, NextFeedingDue: &stale}
	Reschedule(&a, time.Hour)

	assert.Nil(t, a.LastHealthCheck)
	assert.Nil(t, a.NextHealthCheck)
	assert.Nil(t, a.NextFeedingDue)
}

func TestReschedule_FeedingInterval(t *testing.T) {
	fed := time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)
	a := Animal{LastFedAt: &fed}

	Reschedule(&a, 12*time.Hour)
	assert.Equal(t, fed.Add(12*time.Hour), *a.NextFeedingDue)

	Reschedule(&a, 0)
	assert.Equal(t, fed.Add(DefaultFeedingInterval), *a.NextFeedingDue)
}

func TestReschedule_IsIdempotent(t *testing.T) {
	fed := time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)
	a := Animal{LastFedAt: &fed, MedicalRecords: []MedicalRecord{{Date: fed}}}

	Reschedule(&a, time.Hour)
	first := *a.NextHealthCheck
	Reschedule(&a, time.Hour)

	assert.Equal(t, first, *a.NextHealthCheck)
}

func TestAgeYearsAndDue(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	a := Animal{BirthDate: time.Date(2020, 6, 16, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 5, a.AgeYears(now))

	a.BirthDate = time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, a.AgeYears(now))

	assert.False(t, a.DueForHealthCheck(now))
	due := now
	a.NextHealthCheck = &due
	assert.True(t, a.DueForHealthCheck(now))
}
