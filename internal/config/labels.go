package config

import (
	"os"
	"runtime"
	"strings"
)

// MachineLabels returns the labels describing this machine for condition
// matching: explicit settings win, otherwise they are detected from the
// OS release, hostname and architecture.
func MachineLabels(s Settings) []string {
	if len(s.DistLabels) > 0 {
		return s.DistLabels
	}
	return detectLabels("/etc/os-release")
}

// detectLabels derives labels like "opensuse", "opensuse15.4", the
// hostname and the architecture from an os-release file.
func detectLabels(osRelease string) []string {
	var labels []string

	if data, err := os.ReadFile(osRelease); err == nil {
		fields := parseOSRelease(string(data))
		id := fields["ID"]
		version := fields["VERSION_ID"]
		if id != "" {
			labels = append(labels, id)
			if version != "" {
				labels = append(labels, id+version)
			}
		}
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		labels = append(labels, hostname)
	}
	labels = append(labels, runtime.GOARCH)

	return labels
}

func parseOSRelease(text string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}
