package ggcheckout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"transaction_id":"tx-1","status":"paid"}`)
	secret := "whsec_test"
	sig := ComputeSignature(body, secret)

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, VerifySignature(body, sig, secret))
	})

	t.Run("uppercase hex accepted", func(t *testing.T) {
		assert.True(t, VerifySignature(body, strings.ToUpper(sig), secret))
	})

	t.Run("sha256 prefix accepted", func(t *testing.T) {
		assert.True(t, VerifySignature(body, "sha256="+sig, secret))
		assert.True(t, VerifySignature(body, "SHA256="+strings.ToUpper(sig), secret))
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		assert.False(t, VerifySignature([]byte(`{"transaction_id":"tx-2","status":"paid"}`), sig, secret))
	})

	t.Run("flipped signature byte rejected", func(t *testing.T) {
		bad := []byte(sig)
		if bad[0] == 'a' {
			bad[0] = 'b'
		} else {
			bad[0] = 'a'
		}
		assert.False(t, VerifySignature(body, string(bad), secret))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		assert.False(t, VerifySignature(body, sig, "other_secret"))
	})

	t.Run("empty signature rejected", func(t *testing.T) {
		assert.False(t, VerifySignature(body, "", secret))
	})
}

func TestComputeSignatureIsDeterministicHex(t *testing.T) {
	body := []byte("payload")
	a := ComputeSignature(body, "k")
	b := ComputeSignature(body, "k")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
