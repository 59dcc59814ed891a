package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestSignatureSortsAndEncodes(t *testing.T) {
	form := url.Values{}
	form.Set("m_payment_id", "abc")
	form.Set("amount", "100.00")
	form.Set("item_name", "Wallet top-up")
	form.Set("email_address", "")
	form.Set("signature", "ignored")

	want := md5hex("amount=100.00&item_name=Wallet+top-up&m_payment_id=abc")
	assert.Equal(t, want, Signature(form, ""))

	wantSalted := md5hex("amount=100.00&item_name=Wallet+top-up&m_payment_id=abc&passphrase=s%26cret")
	assert.Equal(t, wantSalted, Signature(form, "s&cret"))
}

func TestVerify(t *testing.T) {
	form := url.Values{}
	form.Set("m_payment_id", "abc")
	form.Set("amount_gross", "50.00")
	form.Set("payment_status", "COMPLETE")

	assert.False(t, Verify(form, "pass"), "missing signature")

	form.Set("signature", Signature(form, "pass"))
	assert.True(t, Verify(form, "pass"))
	assert.False(t, Verify(form, "other"))

	form.Set("amount_gross", "5000.00")
	assert.False(t, Verify(form, "pass"), "tampered amount")
}
