package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/dmitrijs2005/chatgate/internal/flagx"
	"github.com/dmitrijs2005/chatgate/internal/server"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"golang.org/x/term"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	adminName := parseCreateAdminFlag()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if adminName != "" {
		if err := bootstrapAdmin(ctx, app, adminName); err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		return
	}

	app.Run(ctx)

}

// parseCreateAdminFlag extracts the optional -create-admin flag without
// touching the flags owned by the config package.
func parseCreateAdminFlag() string {
	args := flagx.FilterArgs(os.Args[1:], []string{"-create-admin"})

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	name := fs.String("create-admin", "", "create an admin account with the given name and exit")
	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	return *name
}

// bootstrapAdmin prompts for a password on the terminal (without echo) and
// inserts the admin row, so a fresh deployment can mint its first admin
// without an existing credential.
func bootstrapAdmin(ctx context.Context, app *server.App, name string) error {
	fmt.Printf("Password for admin %q: ", name)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if _, err := app.AdminService().Bootstrap(ctx, name, string(password)); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("admin %q created\n", name)
	return nil
}
