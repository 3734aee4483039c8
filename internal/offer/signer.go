package offer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes and verifies keyed integrity tags over encoded offer
// tokens. The secret is process-wide configuration loaded once at startup;
// tokens signed under a rotated secret fail verification with no grace
// period.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given shared secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the lowercase hex HMAC-SHA256 tag over the exact token bytes.
func (s *Signer) Sign(token []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(token)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the tag for the token and compares it to the submitted
// signature in constant time. It returns false for any mismatch, including
// malformed hex input; attacker-controlled input never causes a panic or an
// error.
func (s *Signer) Verify(token []byte, signatureHex string) bool {
	submitted, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(token)
	expected := mac.Sum(nil)

	return hmac.Equal(expected, submitted)
}
