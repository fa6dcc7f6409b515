// Command hash-generator prints password hashes for seeding accounts, using
// the server's bcrypt hasher.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/validation"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost (4-31)")
	check := flag.Bool("check", false, "also report password policy violations")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, os.Stderr, *cost, *check, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "hash-generator: %v\n", err)
		os.Exit(1)
	}
}

// run hashes each argument, or each line of stdin when no arguments are given.
func run(stdin io.Reader, stdout, stderr io.Writer, cost int, check bool, args []string) error {
	if cost < 4 || cost > 31 {
		return fmt.Errorf("cost %d out of range", cost)
	}
	hasher := auth.NewBcryptHasher(cost)

	passwords := args
	if len(passwords) == 0 {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
				passwords = append(passwords, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	for _, password := range passwords {
		if check {
			if !validation.IsStrongPassword(password) {
				fmt.Fprintf(stderr, "warning: %s\n", validation.PasswordRuleMessage)
			}
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, hash)
	}
	return nil
}
