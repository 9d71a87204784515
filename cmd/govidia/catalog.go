package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ntpeters/govidia/internal/catalog"
	"github.com/ntpeters/govidia/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Fetch and list all driver series",
	Long: `Fetch NVIDIA's driver pages and list every known driver series with
its latest version and the number of supported devices.

The catalog is rebuilt from live pages on each run.`,
	Run: runCatalog,
}

func init() {
	catalogCmd.Flags().Bool("json", false, "Output as JSON")
	catalogCmd.Flags().Bool("devices", false, "Include the supported device list per series")
}

func runCatalog(cmd *cobra.Command, args []string) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	withDevices, _ := cmd.Flags().GetBool("devices")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	client := catalog.NewClient(cfg)
	cat, err := client.Fetch(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching driver catalog: %v\n", err)
		os.Exit(1)
	}

	entries := cat.Entries()

	if jsonOut {
		out := entries
		if !withDevices {
			trimmed := make([]*catalog.SeriesEntry, len(entries))
			for i, e := range entries {
				entry := *e
				entry.Devices = nil
				trimmed[i] = &entry
			}
			out = trimmed
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%-12s %-14s %-10s %s\n", "SERIES", "LATEST", "DEVICES", "BRANCH")
	fmt.Println(strings.Repeat("-", 60))

	for _, e := range entries {
		branch := "legacy"
		switch e.Series {
		case cat.LongLivedSeries():
			branch = "long-lived"
		case cat.ShortLivedSeries():
			branch = "short-lived"
		}

		latest := e.LatestVersion
		if latest == "" {
			latest = "-"
		}

		fmt.Printf("%-12s %-14s %-10d %s\n", e.Series, latest, len(e.Devices), branch)

		if withDevices {
			for _, dev := range e.Devices {
				fmt.Printf("    %-10s %s\n", catalog.NormalizeID(dev.PCIID), dev.Name)
			}
		}
	}
}
