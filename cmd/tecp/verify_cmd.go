package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"tecpd/internal/domain"
	"tecpd/pkg/attest"
)

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var inPath string
	var requireProof bool
	var outPath string
	fs.StringVar(&inPath, "in", "", "receipt JSON path")
	fs.BoolVar(&requireProof, "require-proof", false, "fail when the receipt carries no log inclusion proof")
	fs.StringVar(&outPath, "out", "", "result JSON path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(os.Stderr, "verify requires --in")
		return 1
	}

	payload, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read receipt: %v\n", err)
		return 1
	}
	if len(payload) > domain.MaxReceiptSizeBytes {
		fmt.Fprintf(os.Stderr, "receipt exceeds %d bytes\n", domain.MaxReceiptSizeBytes)
		return 1
	}

	result, err := attest.VerifyWire(context.Background(), payload, attest.VerifyOptions{
		RequireProof: requireProof,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode receipt: %v\n", err)
		return 1
	}

	out, err := json.Marshal(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, out); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	if !result.Valid {
		return 2
	}
	return 0
}
