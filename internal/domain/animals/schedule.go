package animals

import "time"

// HealthCheckInterval separa un control de salud del siguiente.
const HealthCheckInterval = 6 // meses

// DefaultFeedingInterval se usa cuando el service no recibe otro intervalo.
const DefaultFeedingInterval = 24 * time.Hour

// Reschedule recalcula las fechas derivadas a partir de los datos guardados:
//   - last_health_check = fecha del último registro médico agregado
//   - next_health_check = last_health_check + 6 meses
//   - next_feeding_due = last_fed_at + feedingInterval
//
// Es una función pura; el service la corre en cada guardado.
func Reschedule(a *Animal, feedingInterval time.Duration) {
	if n := len(a.MedicalRecords); n > 0 {
		last := a.MedicalRecords[n-1].Date
		a.LastHealthCheck = &last
	}
	if a.LastHealthCheck != nil {
		next := a.LastHealthCheck.AddDate(0, HealthCheckInterval, 0)
		a.NextHealthCheck = &next
	} else {
		a.NextHealthCheck = nil
	}

	if feedingInterval <= 0 {
		feedingInterval = DefaultFeedingInterval
	}
	if a.LastFedAt != nil {
		next := a.LastFedAt.Add(feedingInterval)
		a.NextFeedingDue = &next
	} else {
		a.NextFeedingDue = nil
	}
}
