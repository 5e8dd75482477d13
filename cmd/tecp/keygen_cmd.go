package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"tecpd/pkg/attest"
)

type keygenOutput struct {
	PublicKeyBase64  string `json:"public_key_base64"`
	PrivateKeyBase64 string `json:"private_key_base64"`
}

func runKeygen(args []string) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var outPath string
	fs.StringVar(&outPath, "out", "", "output JSON path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	pub, priv, err := attest.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key pair: %v\n", err)
		return 1
	}

	payload, err := json.Marshal(keygenOutput{
		PublicKeyBase64:  base64.StdEncoding.EncodeToString(pub),
		PrivateKeyBase64: base64.StdEncoding.EncodeToString(priv),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
