package security

import "crypto/subtle"

// SecretEqual compares a presented shared secret against the configured value
// in constant time. An empty configured value always denies, so flows gated by
// an unconfigured secret fail closed.
func SecretEqual(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
