package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature valida el header X-Hub-Signature-256 de GitHub:
// "sha256=<hex del HMAC-SHA256 del body crudo>".
func VerifySignature(payload []byte, signature, secret string) bool {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
