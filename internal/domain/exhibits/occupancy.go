package exhibits

import "zoo-management/internal/platform/sentinel"

var ErrCapacityExceeded = sentinel.Wrap(sentinel.ErrCapacityExceeded, "exhibit is at full capacity")

// Attach agrega animalID respetando la capacidad y sincroniza la ocupación
// en la misma operación. Si el animal ya estaba, no cambia nada.
// Los repositorios aplican esta regla dentro de una única escritura atómica.
func Attach(e Exhibit, animalID string) (Exhibit, error) {
	if e.HasAnimal(animalID) {
		return e, nil
	}
	if len(e.Animals) >= e.Capacity.Animals {
		return e, ErrCapacityExceeded
	}
	out := e
	out.Animals = append(append(make([]string, 0, len(e.Animals)+1), e.Animals...), animalID)
	syncOccupancy(&out)
	return out, nil
}

// Detach quita animalID (si está) y sincroniza la ocupación.
func Detach(e Exhibit, animalID string) Exhibit {
	out := e
	out.Animals = make([]string, 0, len(e.Animals))
	for _, id := range e.Animals {
		if id != animalID {
			out.Animals = append(out.Animals, id)
		}
	}
	syncOccupancy(&out)
	return out
}

func syncOccupancy(e *Exhibit) {
	e.CurrentOccupancy.Animals = len(e.Animals)
}
