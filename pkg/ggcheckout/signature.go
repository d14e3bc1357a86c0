package ggcheckout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeSignature returns the hex-encoded HMAC-SHA256 of the raw request
// body using the shared webhook secret as key.
func ComputeSignature(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature token against the HMAC-SHA256
// of the exact raw body bytes. The comparison is case-insensitive and
// tolerates an optional "sha256=" prefix on the received token.
func VerifySignature(rawBody []byte, receivedSignature, secret string) bool {
	received := strings.TrimPrefix(strings.ToLower(receivedSignature), "sha256=")
	expected := ComputeSignature(rawBody, secret)
	return hmac.Equal([]byte(received), []byte(expected))
}
