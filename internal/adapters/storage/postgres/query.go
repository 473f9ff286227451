package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder arma cláusulas WHERE con placeholders numerados; "?" se
// reemplaza por el siguiente $n.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, v any) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

// addLike agrega un OR de ILIKE sobre columns con el mismo patrón.
func (w *whereBuilder) addLike(q string, columns ...string) {
	w.args = append(w.args, "%"+escapeLike(q)+"%")
	p := fmt.Sprintf("$%d", len(w.args))
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" ILIKE "+p)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page devuelve la consulta completa con ORDER BY, LIMIT y OFFSET; limit 0
// significa sin límite.
func (w *whereBuilder) page(selectFrom, orderBy string, offset, limit int) (string, []any) {
	args := append([]any{}, w.args...)
	q := selectFrom + w.sql() + " ORDER BY " + orderBy
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return q, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
