package mappings

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hazyhaar/mcmappings/scheme"
)

// firstNonSeargeMinor is the first 1.x release the site publishes
// Mojang, Yarn and Intermediary names for.
const firstNonSeargeMinor = 15

// parseMinor reads the leading digits of the second dot-separated field, so
// 1.14.4, 1.14.4.1 and 1.14-pre1 all have minor 14.
func parseMinor(version string) (int, error) {
	_, rest, ok := strings.Cut(version, ".")
	if !ok {
		return 0, fmt.Errorf("version %q: no minor component", version)
	}
	field, _, _ := strings.Cut(rest, ".")
	end := 0
	for end < len(field) && field[end] >= '0' && field[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("version %q: minor component %q is not numeric", version, field)
	}
	return strconv.Atoi(field[:end])
}

// checkVersion enforces the version gate. An unparseable version only
// produces a warning: the gate restricts one scheme and snapshots such as
// 23w13a still have pages.
func checkVersion(version string, s scheme.Scheme, logger *slog.Logger) error {
	minor, err := parseMinor(version)
	if err != nil {
		logger.Warn("mappings: cannot parse minor version, skipping scheme check", "version", version, "error", err)
		return nil
	}
	if minor < firstNonSeargeMinor && s != scheme.Searge {
		return &UnsupportedSchemeError{Version: version, Scheme: s}
	}
	return nil
}
