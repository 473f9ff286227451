package animals

import (
	"context"
	"time"
)

type Filter struct {
	Species      string // coincidencia parcial, case-insensitive
	Gender       Gender
	Status       Status
	ExhibitID    string
	IsEndangered *bool
	IsActive     *bool
	// Query busca por nombre, especie, nombre científico, microchip o rfid.
	Query string
	// HealthCheckDueAt filtra animales con next_health_check <= la fecha.
	HealthCheckDueAt *time.Time

	Offset int
	Limit  int // 0 = sin límite
}

type Repository interface {
	// Create devuelve ErrDuplicateKey si microchip_id o rfid_tag ya existen.
	Create(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	List(ctx context.Context, f Filter) ([]Animal, int, error)
	// Save guarda si a.Version coincide con la versión persistida
	// (ErrConflict si no) y devuelve el animal con la versión incrementada.
	Save(ctx context.Context, a Animal) (Animal, error)
}
