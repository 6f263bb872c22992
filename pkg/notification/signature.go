package notification

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// signatureIgnoreFields never take part in the signed text.
var signatureIgnoreFields = map[string]bool{
	FieldFail:      true,
	FieldSignature: true,
}

// characters ZRU blanks out before signing
var signatureCleaner = strings.NewReplacer(
	"<", " ",
	">", " ",
	`"`, " ",
	"'", " ",
	"(", " ",
	")", " ",
	`\`, " ",
)

// Sign computes the signature ZRU attaches to a notification: the cleaned
// values of every signed field in key order, followed by the secret, hashed
// with SHA-256 and hex encoded.
//
// Fields named "fail" or "signature", fields starting with "_" and null
// fields are skipped.
func Sign(payload Payload, secret string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		v := payload[k]
		if signatureIgnoreFields[k] || strings.HasPrefix(k, "_") || v == nil {
			continue
		}
		builder.WriteString(cleanValue(v))
	}
	builder.WriteString(secret)

	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}

// whitespace trimmed from both ends of each cleaned value
const signatureTrimSet = " \t\n\r\x00\x0b"

func cleanValue(v any) string {
	return strings.Trim(signatureCleaner.Replace(stringify(v)), signatureTrimSet)
}

// CheckSignature reports whether the payload was signed with the client's
// secret key. A missing or non-string signature field is a mismatch.
func (n *Notification) CheckSignature() bool {
	sig, ok := n.payload[FieldSignature].(string)
	if !ok {
		return false
	}

	expected := Sign(n.payload, n.client.SecretKey())
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
