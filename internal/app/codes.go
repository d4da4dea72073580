package app

import (
	"fmt"
	"math/rand/v2"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

const codeSpace = 1_000_000

// RandomCode draws a six digit session code. Uniqueness is enforced by the
// registry, not here.
func RandomCode() domain.Code {
	return domain.Code(fmt.Sprintf("%06d", rand.IntN(codeSpace)))
}
