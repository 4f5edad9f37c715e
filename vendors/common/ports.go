package common

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxRangeSpan caps how many ports one "a-b" element may expand to
const MaxRangeSpan = 4096

// ExpandPortRange expands a compact port list such as "3-5,7" into
// ["3","4","5","7"]. Order and duplicates are preserved; empty elements
// are skipped.
func ExpandPortRange(ports string) ([]string, error) {
	var result []string
	for _, element := range strings.Split(ports, ",") {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}
		if !strings.Contains(element, "-") {
			result = append(result, element)
			continue
		}
		bounds := strings.SplitN(element, "-", 2)
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q: %w", element, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q: %w", element, err)
		}
		if end-start >= MaxRangeSpan {
			return nil, fmt.Errorf("invalid port range %q: spans more than %d ports", element, MaxRangeSpan)
		}
		for i := start; i <= end; i++ {
			result = append(result, strconv.Itoa(i))
		}
	}
	return result, nil
}

// HasPortRange reports whether s uses list or range syntax
func HasPortRange(s string) bool {
	return strings.ContainsAny(s, "-,")
}

// LastSegment returns the last "/" separated element of a resource address
func LastSegment(address string) string {
	if i := strings.LastIndex(address, "/"); i >= 0 {
		return address[i+1:]
	}
	return address
}
