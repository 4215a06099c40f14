package executor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vk/proofgridgo/internal/apperrors"
)

// Discover scans the units directory for definition files matching
// <prefix><name><ext> and derives unit identifiers from their names.
// Zero matches is a discovery error: an empty bench is a misconfiguration,
// not a successful no-op.
func Discover(unitsDir, prefix, ext string) ([]string, error) {
	entries, err := os.ReadDir(unitsDir)
	if err != nil {
		return nil, apperrors.Discovery(fmt.Sprintf("reading units directory %s: %v", unitsDir, err))
	}

	var units []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		unit := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if unit == "" {
			return nil, apperrors.Discovery(fmt.Sprintf("malformed definition name %s in %s", name, unitsDir))
		}
		units = append(units, unit)
	}

	if len(units) == 0 {
		return nil, apperrors.Discovery(fmt.Sprintf("no unit definitions found in %s", unitsDir))
	}
	sort.Strings(units)
	return units, nil
}
