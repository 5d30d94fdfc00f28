package suite

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// ErrRangeSyntax is returned for malformed range expressions.
var ErrRangeSyntax = errors.New("invalid range expression")

// ParseRange expands a comma separated list of ids and ranges within
// [lo, hi]. Supported items are "n", "n-m", "-m" (lo to m, first item only)
// and "n-" (n to hi, last item only). Duplicates are dropped, order is kept.
func ParseRange(expr string, lo, hi int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty", ErrRangeSyntax)
	}
	items := strings.Split(expr, ",")
	seen := sets.New[int]()
	var out []int
	for i, item := range items {
		item = strings.TrimSpace(item)
		from, to, err := parseItem(item, lo, hi, i == 0, i == len(items)-1)
		if err != nil {
			return nil, err
		}
		if from > to {
			return nil, fmt.Errorf("%w: %q is decreasing", ErrRangeSyntax, item)
		}
		if from < lo || to > hi {
			return nil, fmt.Errorf("%w: %q is outside [%d, %d]", ErrRangeSyntax, item, lo, hi)
		}
		for v := from; v <= to; v++ {
			if !seen.Has(v) {
				seen.Insert(v)
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func parseItem(item string, lo, hi int, first, last bool) (int, int, error) {
	switch {
	case item == "" || item == "-":
		return 0, 0, fmt.Errorf("%w: empty item", ErrRangeSyntax)
	case strings.HasPrefix(item, "-"):
		if !first {
			return 0, 0, fmt.Errorf("%w: open start %q must come first", ErrRangeSyntax, item)
		}
		to, err := atoi(item[1:])
		return lo, to, err
	case strings.HasSuffix(item, "-"):
		if !last {
			return 0, 0, fmt.Errorf("%w: open end %q must come last", ErrRangeSyntax, item)
		}
		from, err := atoi(item[:len(item)-1])
		return from, hi, err
	}
	fromStr, toStr, isRange := strings.Cut(item, "-")
	from, err := atoi(fromStr)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return from, from, nil
	}
	to, err := atoi(toStr)
	return from, to, err
}

func atoi(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrRangeSyntax, s)
	}
	return v, nil
}
