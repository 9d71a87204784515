package detect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDevice is returned when no NVIDIA display device is present or the
// PCI bus cannot be read. Callers should treat it as a normal outcome and
// fall back to an explicitly supplied device ID.
var ErrNoDevice = errors.New("no NVIDIA device detected")

// NVIDIA's registered PCI vendor ID.
const vendorNVIDIA = "10de"

// PCI class prefix for display controllers (VGA, 3D, other display).
const classDisplay = "0x03"

// Device is an NVIDIA display device found on the PCI bus.
type Device struct {
	// PCIID is the canonical device identifier: vendor + device ID as
	// eight upper-case hex digits, e.g. "10DE1180".
	PCIID string `json:"pci_id"`
	// Name is the marketing name from the pci.ids database, if known.
	Name string `json:"name,omitempty"`
	// Address is the PCI bus address, e.g. "0000:01:00.0".
	Address string `json:"address,omitempty"`
}

// DefaultSysfsPath is where the kernel exposes PCI device enumeration.
const DefaultSysfsPath = "/sys/bus/pci/devices"

// Detect scans the PCI bus for an NVIDIA display device and returns the
// first match. Returns ErrNoDevice when none is present.
//
// Sysfs is tried first (no process spawning); if it is unreadable the
// lspci fallback is used.
func Detect() (*Device, error) {
	dev, err := DetectAt(DefaultSysfsPath)
	if err == nil {
		return dev, nil
	}

	if dev, lerr := detectViaLspci(); lerr == nil {
		return dev, nil
	}

	return nil, err
}

// DetectAt scans the given sysfs PCI device directory. Split out from
// Detect so tests can point it at a fixture tree.
func DetectAt(sysfsPath string) (*Device, error) {
	entries, err := os.ReadDir(sysfsPath)
	if err != nil {
		return nil, ErrNoDevice
	}

	for _, entry := range entries {
		devPath := filepath.Join(sysfsPath, entry.Name())

		class, err := readHexAttr(devPath, "class")
		if err != nil || !strings.HasPrefix(class, classDisplay) {
			continue
		}

		vendor, err := readHexAttr(devPath, "vendor")
		if err != nil || strings.TrimPrefix(vendor, "0x") != vendorNVIDIA {
			continue
		}

		device, err := readHexAttr(devPath, "device")
		if err != nil {
			continue
		}

		pciID := strings.ToUpper(vendorNVIDIA + strings.TrimPrefix(device, "0x"))
		return &Device{
			PCIID:   pciID,
			Name:    lookupDeviceName(strings.TrimPrefix(device, "0x")),
			Address: entry.Name(),
		}, nil
	}

	return nil, ErrNoDevice
}

// readHexAttr reads a single sysfs attribute file like "0x10de\n".
func readHexAttr(devPath, attr string) (string, error) {
	data, err := os.ReadFile(filepath.Join(devPath, attr))
	if err != nil {
		return "", err
	}
	value := strings.ToLower(strings.TrimSpace(string(data)))
	if value == "" {
		return "", fmt.Errorf("empty %s attribute", attr)
	}
	return value, nil
}
