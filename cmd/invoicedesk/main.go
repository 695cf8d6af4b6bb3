// Command invoicedesk runs the API and, with SCHEDULER_ENABLED, the recurring
// generator in one process.
//
//	invoicedesk                  serve
//	invoicedesk hash-password    read a password on stdin, print AUTH_PASSWORD_HASH
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/auth/password"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/idgen"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	"github.com/smallbiznis/invoicedesk/internal/scheduler"
	"github.com/smallbiznis/invoicedesk/internal/server"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-password":
			if err := hashPassword(); err != nil {
				fmt.Fprintln(os.Stderr, "hash-password:", err)
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
			os.Exit(2)
		}
	}

	fx.New(
		config.Module,
		observability.Module,
		idgen.Module(1),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	).Run()
}

func hashPassword() error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		return errors.New("password is empty")
	}
	encoded, err := password.Hash(plain)
	if err != nil {
		return err
	}
	fmt.Println(encoded)
	return nil
}
