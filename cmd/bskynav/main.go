package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonycpsu/bluesky-navigator/internal/app"
	"github.com/tonycpsu/bluesky-navigator/internal/bsky"
	"github.com/tonycpsu/bluesky-navigator/internal/page"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
	"github.com/tonycpsu/bluesky-navigator/internal/storage"
	"github.com/tonycpsu/bluesky-navigator/internal/theme"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		themeName   string
		service     string
		showVersion bool
	)

	flag.StringVar(&themeName, "theme", "", "color theme (default, gruvbox, nord, dracula)")
	flag.StringVar(&service, "service", "", "XRPC service host (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bskynav - keyboard-driven Bluesky navigator with read tracking\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bskynav [flags] [url]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bskynav                                # start on the home timeline\n")
		fmt.Fprintf(os.Stderr, "  bskynav /profile/bsky.app              # open a profile\n")
		fmt.Fprintf(os.Stderr, "  bskynav --theme gruvbox                # use the gruvbox theme\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("bskynav %s\n", version)
		os.Exit(0)
	}

	cfg, err := storage.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if themeName == "" {
		themeName = cfg.GetString("theme")
	}
	if !theme.Set(themeName) {
		fmt.Fprintf(os.Stderr, "Unknown theme: %s\nAvailable: default, gruvbox, nord, dracula\n", themeName)
		os.Exit(1)
	}

	// Storage is best-effort: without it the navigator still runs, the read
	// ledger just won't survive restarts.
	var kv *storage.KV
	if dataDir, err := storage.DataDir(); err == nil {
		if db, err := storage.OpenDB(dataDir); err == nil {
			kv = storage.NewKV(db)
			defer db.Close()
		} else {
			fmt.Fprintf(os.Stderr, "Warning: storage unavailable: %v\n", err)
		}
	}

	ledger := readstate.Load(kv, cfg.GetInt("ledgerMaxEntries"))

	if service == "" {
		service = cfg.GetString("service")
	}
	cooldown := time.Duration(cfg.GetInt("authCooldownSec")) * time.Second
	client := bsky.NewClient(service, cooldown)

	var startURL string
	if flag.NArg() > 0 {
		startURL = flag.Arg(0)
	}

	m := app.NewModel(app.Deps{
		Config:   cfg,
		Ledger:   ledger,
		Client:   client,
		Doc:      page.NewDocument(),
		StartURL: startURL,
	})
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if ledger.Dirty() {
		if err := ledger.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: read state not saved: %v\n", err)
		}
	}
}
