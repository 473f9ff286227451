package exhibits

import (
	"context"
	"time"
)

type Filter struct {
	Type     Type
	Theme    string
	Status   Status
	IsActive *bool
	// Query busca por nombre, tema o descripción (case-insensitive).
	Query string

	Offset int
	Limit  int // 0 = sin límite
}

type Repository interface {
	Create(ctx context.Context, e Exhibit) error
	GetByID(ctx context.Context, id string) (Exhibit, error)
	List(ctx context.Context, f Filter) ([]Exhibit, int, error)

	// Save persiste cambios administrativos si e.Version coincide con la
	// versión guardada (ErrConflict si no) e incrementa la versión.
	// Nunca escribe animals ni current_occupancy.animals, y rechaza una
	// capacity.animals menor a la cantidad actual de animales.
	Save(ctx context.Context, e Exhibit) (Exhibit, error)

	// AttachAnimal aplica Attach en una sola escritura condicional: solo
	// agrega si el exhibit está activo y len(animals) < capacity.animals.
	AttachAnimal(ctx context.Context, exhibitID, animalID string, at time.Time) (Exhibit, error)
	DetachAnimal(ctx context.Context, exhibitID, animalID string, at time.Time) (Exhibit, error)
}
