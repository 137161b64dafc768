package pkg

import (
	"math/rand"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// DefaultIDLength is the suffix length used for job display names.
const DefaultIDLength = 8

// NewRunID returns a random lowercase-alphanumeric token of the given
// length. Collisions are only probabilistically avoided; the token carries
// no cryptographic weight.
func NewRunID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}

	return string(b)
}

// DisplayName builds the display name for a submitted job from its mode
// label, e.g. "platepals-data-processor-x7kq02mz".
func DisplayName(label string) string {
	return "platepals-" + label + "-" + NewRunID(DefaultIDLength)
}
