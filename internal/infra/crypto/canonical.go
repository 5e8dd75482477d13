package crypto

import (
	"bytes"
	"strconv"

	"tecpd/internal/domain"
)

// CanonicalizeCore encodes the seven signed receipt fields as canonical
// JSON: keys in lexicographic order, no insignificant whitespace, ts as
// decimal text, strings escaped per RFC 8785. The output is the byte
// sequence covered by the signature and must be identical across signer,
// verifier, and other protocol implementations. Extensions, sig, and pubkey
// are never part of it.
func CanonicalizeCore(r domain.Receipt) []byte {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')

	writeString(buf, "code_ref")
	buf.WriteByte(':')
	writeString(buf, r.CodeRef)
	buf.WriteByte(',')

	writeString(buf, "input_hash")
	buf.WriteByte(':')
	writeString(buf, r.InputHash)
	buf.WriteByte(',')

	writeString(buf, "nonce")
	buf.WriteByte(':')
	writeString(buf, r.Nonce)
	buf.WriteByte(',')

	writeString(buf, "output_hash")
	buf.WriteByte(':')
	writeString(buf, r.OutputHash)
	buf.WriteByte(',')

	writeString(buf, "policy_ids")
	buf.WriteByte(':')
	buf.WriteByte('[')
	for i, id := range r.PolicyIDs {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, id)
	}
	buf.WriteByte(']')
	buf.WriteByte(',')

	writeString(buf, "ts")
	buf.WriteByte(':')
	buf.WriteString(strconv.FormatInt(r.TS, 10))
	buf.WriteByte(',')

	writeString(buf, "version")
	buf.WriteByte(':')
	writeString(buf, r.Version)

	buf.WriteByte('}')
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexLower[r>>4])
				buf.WriteByte(hexLower[r&0x0f])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

var hexLower = []byte("0123456789abcdef")
