package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"tecpd/internal/domain"
	"tecpd/pkg/attest"
)

func runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var codeRef string
	var inputPath string
	var outputPath string
	var policyIDs string
	var keyBase64 string
	var keySeedHex string
	var erasure string
	var outPath string
	fs.StringVar(&codeRef, "code-ref", "", "code reference (e.g. git:<commit>)")
	fs.StringVar(&inputPath, "input", "", "input payload path")
	fs.StringVar(&outputPath, "output", "", "output payload path")
	fs.StringVar(&policyIDs, "policy-ids", "", "comma-separated policy identifiers")
	fs.StringVar(&keyBase64, "key-base64", "", "ed25519 private key or seed, base64")
	fs.StringVar(&keySeedHex, "key-seed-hex", "", "ed25519 seed, hex")
	fs.StringVar(&erasure, "key-erasure", "", "key erasure scheme (counter+seal@tee or sw-sim)")
	fs.StringVar(&outPath, "out", "", "receipt JSON path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if codeRef == "" || inputPath == "" || outputPath == "" {
		fmt.Fprintln(os.Stderr, "sign requires --code-ref, --input and --output")
		return 1
	}
	if (keyBase64 == "" && keySeedHex == "") || (keyBase64 != "" && keySeedHex != "") {
		fmt.Fprintln(os.Stderr, "sign requires exactly one of --key-base64 or --key-seed-hex")
		return 1
	}
	erasureScheme := domain.KeyErasureScheme(erasure)
	if erasure != "" && !erasureScheme.Valid() {
		fmt.Fprintf(os.Stderr, "unknown key erasure scheme %q (want %s or %s)\n",
			erasure, domain.KeyErasureCounterSealTEE, domain.KeyErasureSoftwareSim)
		return 1
	}

	privateKey, err := parseSigningKey(keyBase64, keySeedHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse signing key: %v\n", err)
		return 1
	}

	input, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		return 1
	}
	output, err := os.ReadFile(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read output: %v\n", err)
		return 1
	}

	req := attest.SignRequest{
		CodeRef:    codeRef,
		InputData:  input,
		OutputData: output,
		PolicyIDs:  splitPolicyIDs(policyIDs),
	}
	if erasure != "" {
		req.Extensions = &attest.Extensions{
			KeyErasure: &domain.KeyErasureProof{Scheme: erasureScheme},
		}
	}

	receipt, err := attest.Sign(context.Background(), req, privateKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign receipt: %v\n", err)
		return 1
	}

	payload, err := json.Marshal(receipt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode receipt: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func parseSigningKey(b64Value, seedHexValue string) (ed25519.PrivateKey, error) {
	if b64Value != "" {
		return attest.ParsePrivateKeyBase64(b64Value)
	}
	return attest.ParsePrivateKeySeedHex(seedHexValue)
}

func splitPolicyIDs(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
