package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var code int
	switch os.Args[1] {
	case "keygen":
		code = runKeygen(os.Args[2:])
	case "sign":
		code = runSign(os.Args[2:])
	case "verify":
		code = runVerify(os.Args[2:])
	case "serve":
		code = runServe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		code = 1
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: tecp <command> [flags]

commands:
  keygen   generate an ed25519 key pair
  sign     issue a receipt for an input/output pair
  verify   verify a receipt
  serve    run the receipt daemon`)
}
