package blob

import "context"

// Store guarda objetos binarios por key (exports de reportes). Get devuelve
// ErrNotFound del sentinel si la key no existe.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
