package cvss

import (
	"strings"

	"github.com/friendsofgo/errors"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported cvss version")
	ErrMalformedVector    = errors.New("malformed cvss vector")
	ErrUnknownMetric      = errors.New("unknown cvss metric")
	ErrDuplicateMetric    = errors.New("duplicate cvss metric")
	ErrInvalidOption      = errors.New("invalid cvss metric value")
	ErrIncompleteVector   = errors.New("incomplete cvss vector")
)

// ParseVector reads a CVSS v3.0 or v3.1 base vector such as
// "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H". Metrics may appear in
// any order but each exactly once. Temporal and environmental metrics are
// not accepted.
func ParseVector(s string) (Selection, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	switch parts[0] {
	case "CVSS:3.0", "CVSS:3.1":
	default:
		if !strings.HasPrefix(parts[0], "CVSS:") {
			return nil, errors.Wrapf(ErrMalformedVector, "missing CVSS label in %q", s)
		}
		return nil, errors.Wrapf(ErrUnsupportedVersion, "%q", parts[0])
	}

	sel := make(Selection, numMetrics)
	for _, p := range parts[1:] {
		name, value, ok := strings.Cut(p, ":")
		if !ok || name == "" || value == "" {
			return nil, errors.Wrapf(ErrMalformedVector, "component %q", p)
		}
		m := Metric(name)
		if _, known := catalog[m]; !known {
			return nil, errors.Wrapf(ErrUnknownMetric, "%q", name)
		}
		if _, dup := sel[m]; dup {
			return nil, errors.Wrapf(ErrDuplicateMetric, "%q", name)
		}
		if !m.Valid(value) {
			return nil, errors.Wrapf(ErrInvalidOption, "%s:%s", name, value)
		}
		sel[m] = value
	}

	if missing := sel.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		return nil, errors.Wrapf(ErrIncompleteVector, "missing %s", strings.Join(names, ","))
	}
	return sel, nil
}

// ScoreVector parses s and scores it. The result always carries the
// canonical CVSS:3.1 form of the vector.
func ScoreVector(s string) (Result, error) {
	sel, err := ParseVector(s)
	if err != nil {
		return Result{}, err
	}
	res, _ := Score(sel)
	return res, nil
}
