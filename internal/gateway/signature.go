package gateway

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Signature signs gateway form fields: every non-empty field except
// "signature", sorted by key, joined as key=urlencoded(value) with "&",
// the passphrase appended when set, then MD5 in lower-case hex.
func Signature(fields url.Values, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "signature" || strings.TrimSpace(fields.Get(k)) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(strings.TrimSpace(fields.Get(k))))
	}
	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(url.QueryEscape(strings.TrimSpace(passphrase)))
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify checks the "signature" field against the other fields
func Verify(fields url.Values, passphrase string) bool {
	got := strings.ToLower(fields.Get("signature"))
	if got == "" {
		return false
	}
	want := Signature(fields, passphrase)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
