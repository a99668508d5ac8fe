package accessgrants

import (
	"crypto/rand"
	"fmt"
)

// Tokens de claim: 8 chars alfanuméricos en mayúscula, pensados para
// dictarse por teléfono o copiarse a mano (se distribuyen out-of-band).
const (
	tokenLength   = 8
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// newToken genera un token aleatorio con crypto/rand.
// La unicidad NO se garantiza acá: la impone el repo al insertar,
// y el emisor reintenta ante colisión (ver maxTokenAttempts en service).
func newToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: rand: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
