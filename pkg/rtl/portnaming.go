package rtl

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPortLabel renders a port's enumeration entry in the
// "[idx] client:port name" convention every backend shares, per spec.md §6.
func FormatPortLabel(idx int, clientPort string) string {
	return fmt.Sprintf("[%d] %s", idx, clientPort)
}

// ParsePortLabel splits a "[idx] client:port" (or a2jmidid's
// "a2j:Client [n] (dir): Port") label back into its client and port halves.
// Grounded on src/midi/portnaming.cpp's extract-name heuristics.
func ParsePortLabel(full string) (client, port string, ok bool) {
	full = strings.TrimSpace(full)
	if i := strings.Index(full, "] "); strings.HasPrefix(full, "[") && i >= 0 {
		full = full[i+2:]
	}

	if strings.HasPrefix(full, "a2j:") {
		rest := full[len("a2j:"):]
		if i := strings.Index(rest, ": "); i >= 0 {
			return "a2j:" + strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+2:]), true
		}
		return "a2j", rest, true
	}

	if i := strings.Index(full, ":"); i >= 0 {
		client := strings.TrimSpace(full[:i])
		port := strings.TrimSpace(full[i+1:])
		if client != "" && port != "" {
			return client, port, true
		}
	}
	return full, "", full != ""
}

// ShortName strips a leading "[idx] " index prefix and, if the remainder
// still contains a client:port separator, returns just the port half —
// the label a UI would want to show once the index and client are already
// implied by context.
func ShortName(full string) string {
	_, port, ok := ParsePortLabel(full)
	if ok && port != "" {
		return port
	}
	return full
}

// ParsePortIndex extracts the leading "[idx]" from a port label, if
// present.
func ParsePortIndex(full string) (int, bool) {
	full = strings.TrimSpace(full)
	if !strings.HasPrefix(full, "[") {
		return 0, false
	}
	end := strings.Index(full, "]")
	if end < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(full[1:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}
