// Command minirel opens a single-file B+ tree database and serves an
// interactive prompt over it (spec §1/§6). It owns process entry only: all
// storage logic lives in internal/table and internal/pager.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SimonWaldherr/minirel/internal/config"
	"github.com/SimonWaldherr/minirel/internal/repl"
	"github.com/SimonWaldherr/minirel/internal/table"
)

var flagConfig = flag.String("config", "minirel.yaml", "path to an optional YAML config sidecar")

func main() {
	flag.Parse()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	filename := cfg.DatabasePath
	if flag.NArg() >= 1 {
		filename = flag.Arg(0)
	}
	if filename == "" {
		fmt.Println("Must supply a database filename.")
		os.Exit(1)
	}

	t, err := table.Open(filename)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}

	if err := repl.New(t, cfg, os.Stdin, os.Stdout).Run(); err != nil {
		log.Fatalf("fatal storage error: %v", err)
	}
}
