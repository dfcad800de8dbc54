package filter

import (
	"crypto/rand"
	"math/big"
)

const topicAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// RandomTopic generates a random topic name of the given length, drawn from
// the valid topic alphabet. Useful for ad-hoc private channels, since topic
// names are effectively passwords on public servers. Lengths outside the
// valid 1..64 range are clamped to 32.
func RandomTopic(length int) string {
	if length < 1 || length > 64 {
		length = 32
	}

	max := big.NewInt(int64(len(topicAlphabet)))
	name := make([]byte, length)
	for i := range name {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// Topic names act as shared secrets; never degrade to a
			// predictable name.
			panic(err)
		}
		name[i] = topicAlphabet[n.Int64()]
	}
	return string(name)
}
