package tickets

import (
	"crypto/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	ticketIDPrefix = "TKT"
	suffixLen      = 9
	base36         = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var ticketIDRe = regexp.MustCompile(`^TKT-\d+-[0-9A-Z]{9}$`)

// IDGenerator produce el ticket id visible para un instante dado.
type IDGenerator func(now time.Time) string

// NewTicketID arma TKT-<unix ms>-<9 caracteres base36>. La unicidad la
// garantiza el índice único de ticket_id; Purchase reintenta ante colisión.
func NewTicketID(now time.Time) string {
	return ticketIDPrefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomSuffix()
}

// NormalizeTicketID deja el id como se guarda (mayúsculas, sin espacios).
func NormalizeTicketID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func ValidTicketID(id string) bool {
	return ticketIDRe.MatchString(id)
}

func randomSuffix() string {
	out := make([]byte, 0, suffixLen)
	var buf [16]byte
	for len(out) < suffixLen {
		_, _ = rand.Read(buf[:])
		for _, b := range buf {
			// 252 = 36*7: descartar el resto evita sesgo en el módulo
			if b >= 252 {
				continue
			}
			out = append(out, base36[b%36])
			if len(out) == suffixLen {
				break
			}
		}
	}
	return string(out)
}
