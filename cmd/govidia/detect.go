package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ntpeters/govidia/internal/detect"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the installed NVIDIA device",
	Long: `Scan the PCI bus for an NVIDIA display device and print its name
and PCI ID. No network access is performed.

Detection reads sysfs directly and falls back to lspci when sysfs is
unavailable. Exits non-zero when no NVIDIA device is present.`,
	Run: runDetect,
}

func init() {
	detectCmd.Flags().Bool("json", false, "Output as JSON")
	detectCmd.Flags().BoolP("quiet", "q", false, "Only output the PCI ID")
}

func runDetect(cmd *cobra.Command, args []string) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")

	dev, err := detect.Detect()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No NVIDIA device detected.")
		os.Exit(1)
	}

	if quiet {
		fmt.Println(dev.PCIID)
		return
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dev); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%-12s %s\n", "PCI ID:", dev.PCIID)
	if dev.Name != "" {
		fmt.Printf("%-12s %s\n", "Name:", dev.Name)
	}
	if dev.Address != "" {
		fmt.Printf("%-12s %s\n", "Address:", dev.Address)
	}
}
