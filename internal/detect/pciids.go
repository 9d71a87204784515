package detect

import (
	"bufio"
	"os"
	"strings"
)

// Locations the pci.ids hardware database is commonly installed at.
var pciIDsPaths = []string{
	"/usr/share/misc/pci.ids",
	"/usr/share/hwdata/pci.ids",
	"/usr/share/pci.ids",
}

// lookupDeviceName resolves an NVIDIA device ID (4 hex digits, lower-case)
// to its name from the pci.ids database. Returns "" when the database is
// missing or the ID is not listed; the name is cosmetic, never required.
func lookupDeviceName(deviceID string) string {
	for _, path := range pciIDsPaths {
		if name := lookupDeviceNameIn(path, deviceID); name != "" {
			return name
		}
	}
	return ""
}

// lookupDeviceNameIn scans a single pci.ids file. Format:
//
//	10de  NVIDIA Corporation
//		1180  GK104 [GeForce GTX 680]
//
// Vendor lines start at column 0; device lines are indented one tab.
func lookupDeviceNameIn(path, deviceID string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	inVendor := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.HasPrefix(line, "\t") {
			inVendor = strings.HasPrefix(strings.ToLower(line), vendorNVIDIA)
			continue
		}
		if !inVendor || strings.HasPrefix(line, "\t\t") {
			// Subsystem lines are indented twice; skip them.
			continue
		}

		fields := strings.SplitN(strings.TrimPrefix(line, "\t"), "  ", 2)
		if len(fields) == 2 && strings.EqualFold(fields[0], deviceID) {
			return strings.TrimSpace(fields[1])
		}
	}

	return ""
}
