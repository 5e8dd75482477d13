package crypto

import (
	"bytes"
	"testing"

	"tecpd/internal/domain"
)

func TestCanonicalizeCore_FixedReceipt(t *testing.T) {
	r := domain.Receipt{
		Version:    "TECP-0.1",
		CodeRef:    "git:abc123",
		TS:         1735689600000,
		Nonce:      "AAAAAAAAAAAAAAAAAAAAAA==",
		InputHash:  "uU0nuZNNPgilLlLX2n2r+sSE7+N6U4DukIj3rOLvzek=",
		OutputHash: "3/1gIbsr1bCvZ2KQgJ7DpTGR3YHH9wpLKGiKNiGCmG8=",
		PolicyIDs:  []string{"no_retention"},
	}

	expected := `{"code_ref":"git:abc123","input_hash":"uU0nuZNNPgilLlLX2n2r+sSE7+N6U4DukIj3rOLvzek=","nonce":"AAAAAAAAAAAAAAAAAAAAAA==","output_hash":"3/1gIbsr1bCvZ2KQgJ7DpTGR3YHH9wpLKGiKNiGCmG8=","policy_ids":["no_retention"],"ts":1735689600000,"version":"TECP-0.1"}`

	actual := CanonicalizeCore(r)
	if !bytes.Equal(actual, []byte(expected)) {
		t.Fatalf("canonical bytes mismatch:\n got %s\nwant %s", actual, expected)
	}
}

func TestCanonicalizeCore_EmptyPolicyIDs(t *testing.T) {
	r := domain.Receipt{Version: "TECP-0.1", CodeRef: "git:abc123", TS: 1, PolicyIDs: []string{}}
	canonical := string(CanonicalizeCore(r))
	if !bytes.Contains([]byte(canonical), []byte(`"policy_ids":[]`)) {
		t.Fatalf("expected empty policy_ids array, got %s", canonical)
	}
}

func TestCanonicalizeCore_PolicyOrderPreserved(t *testing.T) {
	// policy_ids is an ordered list, never sorted during canonicalization.
	r := domain.Receipt{Version: "TECP-0.1", CodeRef: "x", TS: 1, PolicyIDs: []string{"zeta", "alpha"}}
	canonical := string(CanonicalizeCore(r))
	if !bytes.Contains([]byte(canonical), []byte(`"policy_ids":["zeta","alpha"]`)) {
		t.Fatalf("policy order not preserved: %s", canonical)
	}
}

func TestCanonicalizeCore_ExcludesSigAndPubkey(t *testing.T) {
	base := domain.Receipt{Version: "TECP-0.1", CodeRef: "x", TS: 1, PolicyIDs: []string{}}
	signed := base
	signed.Sig = "c2ln"
	signed.Pubkey = "cHVi"
	if !bytes.Equal(CanonicalizeCore(base), CanonicalizeCore(signed)) {
		t.Fatal("sig/pubkey must not affect canonical bytes")
	}
}

func TestCanonicalizeCore_StringEscaping(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"quote", `a"b`, `a\"b`},
		{"backslash", `a\b`, `a\\b`},
		{"newline", "a\nb", `a\nb`},
		{"tab", "a\tb", `a\tb`},
		{"control", "a\x01b", `a\u0001b`},
		{"unicode passthrough", "héllo", "héllo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			writeString(buf, tc.in)
			want := `"` + tc.want + `"`
			if buf.String() != want {
				t.Fatalf("escape %q: got %s, want %s", tc.in, buf.String(), want)
			}
		})
	}
}

func TestCanonicalizeCore_Deterministic(t *testing.T) {
	r := domain.Receipt{
		Version:   "TECP-0.1",
		CodeRef:   "git:deadbeef",
		TS:        1700000000123,
		Nonce:     "q83vASNFZ4mrze8BI0VniQ==",
		PolicyIDs: []string{"no_retention", "eu_region"},
	}
	first := CanonicalizeCore(r)
	for i := 0; i < 10; i++ {
		if !bytes.Equal(first, CanonicalizeCore(r)) {
			t.Fatal("canonicalization is not deterministic")
		}
	}
}
