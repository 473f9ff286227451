package cache

import (
	"context"
	"time"

	"zoo-management/internal/platform/metrics"
)

// Cache es un almacén key -> (valor, expiración). Los valores viajan como
// JSON para que memoria y Redis se comporten igual.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// Invalidate borra todas las entradas cuyo key empieza con prefix.
	Invalidate(ctx context.Context, prefix string) error
}

// Memoize devuelve el valor cacheado bajo key o lo calcula con fn y lo guarda.
// Errores del cache no rompen la lectura: se recalcula.
func Memoize[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := c.Get(ctx, key, &cached); err == nil && ok {
		metrics.CacheLookup(true)
		return cached, nil
	}
	metrics.CacheLookup(false)

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v, ttl)
	return v, nil
}
