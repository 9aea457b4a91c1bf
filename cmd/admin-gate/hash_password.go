package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strings"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/password"
)

// runHashPassword reads one password line from stdin and prints its argon2id
// hash for use as an admin password_hash.
func runHashPassword(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		fmt.Fprintf(stderr, "hash-password: read: %v\n", err)
		return 1
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		fmt.Fprintln(stderr, "hash-password: empty password on stdin")
		return 2
	}

	p := adminGate.DefaultConfig().Password
	h, err := password.NewArgon2(password.Config{
		Memory:      p.Memory,
		Time:        p.Time,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	})
	if err != nil {
		fmt.Fprintf(stderr, "hash-password: %v\n", err)
		return 1
	}

	hash, err := h.Hash(plain)
	if err != nil {
		fmt.Fprintf(stderr, "hash-password: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, hash)
	return 0
}
