package youtube

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDuration is assumed for results that show no running time.
const DefaultDuration = time.Minute

// Units for colon separated components, read right to left.
var durationUnits = []time.Duration{time.Second, time.Minute, time.Hour, 24 * time.Hour}

// ParseDuration parses displayed running times such as "3:33" or "1:02:03".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	parts := strings.Split(s, ":")
	if len(parts) > len(durationUnits) {
		return 0, fmt.Errorf("duration %q has too many components", s)
	}

	var d time.Duration
	for i := range parts {
		part := strings.TrimSpace(parts[len(parts)-1-i])
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration component %q in %q", part, s)
		}
		unit := int64(durationUnits[i])
		if n > (math.MaxInt64-int64(d))/unit {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		d += time.Duration(n * unit)
	}
	return d, nil
}
