// Command hash-password prints a bcrypt hash for seeding accounts by hand.
//
//	hash-password -cost 12 'correct horse'
//	echo -n 'correct horse' | hash-password
//
// Without -cost the configured auth.bcrypt_cost (DOGADOPT_AUTH_BCRYPT_COST)
// is used, falling back to bcrypt's default.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/dogadopt-api/internal/domain"
	"github.com/phrazzld/dogadopt-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 0, "bcrypt cost (4-31); defaults to DOGADOPT_AUTH_BCRYPT_COST")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, flag.Args(), *cost); err != nil {
		fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
		os.Exit(1)
	}
}

func run(stdin io.Reader, stdout io.Writer, args []string, cost int) error {
	password, err := readPassword(stdin, args)
	if err != nil {
		return err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return err
	}

	if cost == 0 {
		cost = envCost()
	}
	hasher := auth.NewBcryptHasher(cost)

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func readPassword(stdin io.Reader, args []string) (string, error) {
	switch len(args) {
	case 0:
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", errors.New("no password given")
		}
		return line, nil
	case 1:
		return args[0], nil
	default:
		return "", errors.New("expected at most one password argument")
	}
}

func envCost() int {
	if raw := os.Getenv("DOGADOPT_AUTH_BCRYPT_COST"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return bcrypt.DefaultCost
}
