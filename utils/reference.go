package utils

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const referenceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateReferenceNumber builds a shareable report identifier of the form
// XS-<base36 timestamp>-<4 char base36 random>. Uniqueness is enforced by the
// database unique index; callers regenerate and retry on collision.
func GenerateReferenceNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = referenceAlphabet[rand.Intn(len(referenceAlphabet))]
	}
	return strings.ToUpper("XS-" + ts + "-" + string(suffix))
}
