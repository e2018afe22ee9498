package answerlock

import (
	"crypto/hmac"
	"crypto/sha256"
)

// TagSize is the length of an integrity Tag.
const TagSize = sha256.Size

// Tag is an HMAC-SHA256 authentication value computed over ciphertext and
// keyed by the shared secret. It rides ahead of the ciphertext in the
// envelope body.
type Tag []byte

// ComputeTag computes the integrity tag for the given ciphertext.
// Both sides call it: the sender to fill the envelope, the recipient to
// recompute with the answer they were given and compare.
func ComputeTag(ciphertext []byte, secret string) Tag {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// Equal reports whether two tags match, in constant time.
func (t Tag) Equal(other Tag) bool {
	return hmac.Equal(t, other)
}
