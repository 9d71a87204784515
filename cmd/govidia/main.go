package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ntpeters/govidia/internal/catalog"
	"github.com/ntpeters/govidia/internal/config"
	"github.com/ntpeters/govidia/internal/db"
	"github.com/ntpeters/govidia/internal/detect"
	"github.com/ntpeters/govidia/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "govidia",
	Short: "NVIDIA driver series and version lookup for Linux",
	Long: `Govidia detects the installed NVIDIA device, looks up the required
driver series for it from NVIDIA's published device tables, and reports
the series, the latest driver version, or the download URL.

The catalog is fetched live on every run; nothing is answered from
stale data.`,
	Run: runLookup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the govidia version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/govidia/config.yaml)")

	rootCmd.Flags().Bool("series", false, "Output the required driver series [Default]")
	rootCmd.Flags().Bool("latest", false, "Output the latest version of the required driver series")
	rootCmd.Flags().Bool("url", false, "Output the download URL for the required driver")
	rootCmd.Flags().Bool("longlived", false, "Prefer the long lived current driver branch [Default]")
	rootCmd.Flags().Bool("shortlived", false, "Prefer the short lived current driver branch")
	rootCmd.Flags().String("deviceid", "", "Use this device PCI ID instead of auto-detecting one")
	rootCmd.Flags().BoolP("verbose", "v", false, "More detailed output")
	rootCmd.Flags().Bool("no-history", false, "Do not record this lookup in the history database")

	rootCmd.MarkFlagsMutuallyExclusive("series", "latest", "url")
	rootCmd.MarkFlagsMutuallyExclusive("longlived", "shortlived")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func runLookup(cmd *cobra.Command, args []string) {
	latestOut, _ := cmd.Flags().GetBool("latest")
	urlOut, _ := cmd.Flags().GetBool("url")
	shortLived, _ := cmd.Flags().GetBool("shortlived")
	longLived, _ := cmd.Flags().GetBool("longlived")
	explicitID, _ := cmd.Flags().GetString("deviceid")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	branch := catalog.ParseBranch(cfg.Branch)
	if shortLived {
		branch = catalog.BranchShortLived
	} else if longLived {
		branch = catalog.BranchLongLived
	}

	if verbose {
		fmt.Printf("OS: %s %s\n", runtime.GOOS, runtime.GOARCH)
	}

	// Resolve the device ID before touching the network: detection
	// failure with no explicit ID must not cost a catalog fetch.
	deviceID := ""
	deviceName := ""
	detected := false
	if explicitID != "" {
		deviceID = catalog.NormalizeID(explicitID)
		if verbose {
			fmt.Printf("Device ID: %s\n", deviceID)
		}
	} else {
		if verbose {
			fmt.Println("Searching for NVIDIA device...")
		}
		dev, err := detect.Detect()
		if err != nil {
			fmt.Fprintln(os.Stderr, "No NVIDIA device detected. Pass --deviceid to look up a specific device.")
			os.Exit(1)
		}
		deviceID = dev.PCIID
		deviceName = dev.Name
		detected = true
		if verbose {
			if dev.Name != "" {
				fmt.Printf("Device Found: %s\n", dev.Name)
			}
			fmt.Printf("Device ID: %s\n", dev.PCIID)
		}
	}

	if verbose {
		fmt.Println("Fetching driver catalog...")
	}
	client := catalog.NewClient(cfg)
	cat, err := client.Fetch(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching driver catalog: %v\n", err)
		os.Exit(1)
	}

	series, err := cat.RequiredSeries(deviceID, branch)
	if err != nil {
		var unknown *catalog.UnknownDeviceError
		if errors.As(err, &unknown) {
			fmt.Fprintf(os.Stderr, "No known compatible driver for device %s\n", unknown.DeviceID)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	entry := cat.Entry(series)

	if verbose {
		designation := "Legacy"
		if cat.IsCurrent(series) {
			designation = "Current"
		}
		fmt.Printf("Required %s Driver Series: %s.xx\n", designation, series)
		fmt.Printf("Latest Driver Version: %s\n", entry.LatestVersion)
		fmt.Printf("Download URL: %s\n", entry.DownloadURL)
	} else if urlOut {
		fmt.Println(entry.DownloadURL)
	} else if latestOut {
		fmt.Println(entry.LatestVersion)
	} else {
		fmt.Println(series)
	}

	if !noHistory && cfg.History.Enabled {
		recordLookup(cfg, &db.LookupRecord{
			SessionID:   uuid.NewString(),
			DeviceID:    deviceID,
			DeviceName:  deviceName,
			Detected:    detected,
			Series:      series,
			Version:     entry.LatestVersion,
			Branch:      branch.String(),
			DownloadURL: entry.DownloadURL,
		}, verbose)
	}
}

// recordLookup appends to the history database, best effort. A missing
// or unwritable database never fails the lookup itself.
func recordLookup(cfg *config.Config, rec *db.LookupRecord, verbose bool) {
	database, err := db.New(cfg.History.Path)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not open history database: %v\n", err)
		}
		return
	}
	defer database.Close()

	if err := database.RecordLookup(rec); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: could not record lookup: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
