package room

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// Room codes are human-shareable: four uppercase letters (I and O excluded
// to avoid confusion with 1 and 0), a hyphen, four digits, e.g. BRKN-4521.
var codePattern = regexp.MustCompile(`^[A-HJ-NP-Z]{4}-[0-9]{4}$`)

const codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// ValidCode reports whether code matches the room-code shape. Checked before
// any lookup or network call is attempted.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// NewCode generates a random room code of the canonical shape.
func NewCode() string {
	buf := make([]byte, 9)
	for i := 0; i < 4; i++ {
		buf[i] = codeLetters[randInt(len(codeLetters))]
	}
	buf[4] = '-'
	for i := 5; i < 9; i++ {
		buf[i] = byte('0' + randInt(10))
	}
	return string(buf)
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failure means the process is in a bad way; a zero
		// index still yields a well-formed code.
		return 0
	}
	return int(v.Int64())
}
