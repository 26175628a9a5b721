package main

import (
	"fmt"
	"os"

	"orderflow/internal/app/api"
	"orderflow/internal/app/audit"
	"orderflow/internal/app/mailer"
	"orderflow/pkg/flags"
)

func main() {
	flags.ParseFlag()

	switch *flags.Mode {
	case "api":
		app := api.NewAPIApp()
		app.Start()

	case "audit":
		app := audit.NewAuditApp()
		app.Start()

	case "mailer":
		app := mailer.NewMailerApp()
		app.Start()

	default:
		fmt.Fprintln(os.Stderr, "usage: orderflow -mode=api|audit|mailer [-config=./config.yaml]")
		os.Exit(2)
	}
}
