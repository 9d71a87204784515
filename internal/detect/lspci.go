package detect

import (
	"os/exec"
	"regexp"
	"strings"
)

// lspci -nn prints the vendor:device pair in brackets at the end of each
// line, e.g.:
//
//	01:00.0 VGA compatible controller [0300]: NVIDIA Corporation GK104 [GeForce GTX 680] [10de:1180] (rev a1)
var lspciIDRe = regexp.MustCompile(`\[10[dD][eE]:([0-9A-Fa-f]{4})\]`)

// detectViaLspci shells out to lspci as a fallback when sysfs is not
// readable (e.g. restricted containers that still allow exec).
func detectViaLspci() (*Device, error) {
	out, err := exec.Command("lspci", "-nn").Output()
	if err != nil {
		return nil, ErrNoDevice
	}
	return parseLspciOutput(string(out))
}

func parseLspciOutput(out string) (*Device, error) {
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "vga") && !strings.Contains(lower, "3d controller") {
			continue
		}
		if !strings.Contains(lower, "nvidia") {
			continue
		}

		m := lspciIDRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		dev := &Device{PCIID: strings.ToUpper(vendorNVIDIA + m[1])}

		// Name sits between the class descriptor and the [10de:xxxx] tag.
		if idx := strings.Index(line, ": "); idx >= 0 {
			name := line[idx+2:]
			if tag := lspciIDRe.FindStringIndex(name); tag != nil {
				name = name[:tag[0]]
			}
			dev.Name = strings.TrimSpace(name)
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			dev.Address = fields[0]
		}

		return dev, nil
	}

	return nil, ErrNoDevice
}
