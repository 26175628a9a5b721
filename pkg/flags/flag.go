// pkg/flags/flag.go
package flags

import (
	"flag"
	"log/slog"
	"os"

	"orderflow/pkg/config"
)

var (
	defaultsPath  = "./config.yaml"
	Port          = flag.Int("port", 3000, "port to listen on")
	Mode          = flag.String("mode", "", "mode to run (api, audit, mailer)")
	SweepInterval = flag.Int("sweep-interval", 0, "seconds between audit sweeps (overrides config)")
	SweepOnce     = flag.Bool("sweep-once", false, "run a single audit sweep and exit")
)

func ParseFlag() {
	filePath := flag.String("config", "./config.yaml", "Path to the config file")
	flag.Parse()

	if *Port < 0 || *Port > 65535 {
		slog.Error("invalid port", "port", *Port)
		os.Exit(1)
	}

	if *filePath != "" {
		defaultsPath = *filePath
	}

	config.FilePath(defaultsPath)
}
