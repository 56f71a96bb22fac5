package helpers

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// codeAlphabet omits O, 0, I and 1 so codes survive being read out loud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns a short code in XXX-XXX-XXX form, used for room
// invites and event short links.
func GenerateCode() string {
	var b strings.Builder
	for group := 0; group < 3; group++ {
		if group > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < 3; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
			if err != nil {
				// crypto/rand only fails when the OS entropy source is broken.
				panic(err)
			}
			b.WriteByte(codeAlphabet[n.Int64()])
		}
	}
	return b.String()
}
