package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ntpeters/govidia/internal/catalog"
	"github.com/ntpeters/govidia/internal/config"
	"github.com/ntpeters/govidia/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the lookup history database",
	Long: `Query past driver resolutions recorded by govidia.

Every successful lookup is appended to a local SQLite database (unless
disabled). The history is an audit trail; lookups themselves always use
freshly fetched data.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent lookups",
	Run:   runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <device-id>",
	Short: "Show lookups for one device",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history entries older than a cutoff",
	Run:   runHistoryPrune,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyListCmd.Flags().Bool("json", false, "Output as JSON")
	historyListCmd.Flags().Int("limit", 50, "Maximum number of entries to show")

	historyShowCmd.Flags().Bool("json", false, "Output as JSON")
	historyShowCmd.Flags().Int("limit", 50, "Maximum number of entries to show")

	historyPruneCmd.Flags().Int("days", 90, "Delete entries older than this many days")
}

func openHistoryDB() (*db.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return db.New(cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	database, err := openHistoryDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	jsonOut, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := database.RecentLookups(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying history: %v\n", err)
		os.Exit(1)
	}

	printHistory(records, jsonOut)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	database, err := openHistoryDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	jsonOut, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("limit")
	deviceID := catalog.NormalizeID(args[0])

	records, err := database.LookupsByDevice(deviceID, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying history: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Fprintf(os.Stderr, "No history for device %s\n", deviceID)
		os.Exit(1)
	}

	printHistory(records, jsonOut)
}

func runHistoryPrune(cmd *cobra.Command, args []string) {
	database, err := openHistoryDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	days, _ := cmd.Flags().GetInt("days")
	cutoff := time.Now().AddDate(0, 0, -days)

	pruned, err := database.Prune(cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Pruned %d entries older than %d days\n", pruned, days)
}

func printHistory(records []*db.LookupRecord, jsonOut bool) {
	if len(records) == 0 {
		fmt.Println("No lookups recorded yet.")
		return
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(records)
		return
	}

	fmt.Printf("%-16s %-10s %-8s %-10s %-12s %s\n", "WHEN", "DEVICE", "SERIES", "VERSION", "BRANCH", "NAME")
	fmt.Println(strings.Repeat("-", 80))

	for _, rec := range records {
		name := rec.DeviceName
		if name == "" {
			name = "-"
		}
		ver := rec.Version
		if ver == "" {
			ver = "-"
		}

		fmt.Printf("%-16s %-10s %-8s %-10s %-12s %s\n",
			humanize.Time(rec.CreatedAt),
			rec.DeviceID, rec.Series, ver, rec.Branch, name)
	}
}
