// Command payroll-billing runs the billing API server and its maintenance
// subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/tigearis/payroll-billing/internal/app"
	"github.com/tigearis/payroll-billing/internal/buildinfo"
	"github.com/tigearis/payroll-billing/internal/config"
)

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 && !flagLike(args[0]) {
		command = args[0]
		args = args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "serve":
		err = runServe(ctx, args)
	case "migrate":
		err = runMigrate(ctx, args)
	case "create-admin":
		err = runCreateAdmin(ctx, args)
	case "version":
		fmt.Printf("payroll-billing %s (%s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\nusage: payroll-billing [serve|migrate|create-admin|version] [flags]\n", command)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// flagLike reports whether an argument is a flag rather than a subcommand.
func flagLike(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}
	return app.RunServer(ctx, config.AppConfig{ConfigPath: *configPath})
}

func runMigrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}
	return app.Migrate(ctx, config.AppConfig{ConfigPath: *configPath})
}

func runCreateAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "admin username")
	password := fs.String("password", "", "admin password")
	superAdmin := fs.Bool("super", false, "grant all permissions")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}
	return app.CreateAdmin(ctx, config.AppConfig{ConfigPath: *configPath}, app.CreateAdminParams{
		Username:   *username,
		Password:   *password,
		SuperAdmin: *superAdmin,
	})
}
