// Package cvss computes CVSS v3.1 base scores for DVA report findings.
package cvss

// Metric is a CVSS v3.1 base metric code.
type Metric string

const (
	AttackVector       Metric = "AV"
	AttackComplexity   Metric = "AC"
	PrivilegesRequired Metric = "PR"
	UserInteraction    Metric = "UI"
	ScopeMetric        Metric = "S"
	Confidentiality    Metric = "C"
	Integrity          Metric = "I"
	Availability       Metric = "A"
)

// BaseMetrics lists the base metrics in vector order.
var BaseMetrics = [...]Metric{
	AttackVector,
	AttackComplexity,
	PrivilegesRequired,
	UserInteraction,
	ScopeMetric,
	Confidentiality,
	Integrity,
	Availability,
}

const numMetrics = len(BaseMetrics)

// Option is one selectable value of a metric.
type Option struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Weight float64 `json:"-"`
}

type definition struct {
	label   string
	options []Option
}

func (d definition) weight(code string) (float64, bool) {
	for _, o := range d.options {
		if o.Code == code {
			return o.Weight, true
		}
	}
	return 0, false
}

var impactOptions = []Option{
	{Code: "H", Name: "High", Weight: 0.56},
	{Code: "L", Name: "Low", Weight: 0.22},
	{Code: "N", Name: "None", Weight: 0.0},
}

// catalog is built once and never written to.
var catalog = map[Metric]definition{
	AttackVector: {label: "Attack Vector", options: []Option{
		{Code: "N", Name: "Network", Weight: 0.85},
		{Code: "A", Name: "Adjacent", Weight: 0.62},
		{Code: "L", Name: "Local", Weight: 0.55},
		{Code: "P", Name: "Physical", Weight: 0.2},
	}},
	AttackComplexity: {label: "Attack Complexity", options: []Option{
		{Code: "L", Name: "Low", Weight: 0.77},
		{Code: "H", Name: "High", Weight: 0.44},
	}},
	// Weights for scope Unchanged; see privilegesScopeChanged.
	PrivilegesRequired: {label: "Privileges Required", options: []Option{
		{Code: "N", Name: "None", Weight: 0.85},
		{Code: "L", Name: "Low", Weight: 0.62},
		{Code: "H", Name: "High", Weight: 0.27},
	}},
	UserInteraction: {label: "User Interaction", options: []Option{
		{Code: "N", Name: "None", Weight: 0.85},
		{Code: "R", Name: "Required", Weight: 0.62},
	}},
	ScopeMetric: {label: "Scope", options: []Option{
		{Code: "U", Name: "Unchanged", Weight: 0},
		{Code: "C", Name: "Changed", Weight: 1},
	}},
	Confidentiality: {label: "Confidentiality", options: impactOptions},
	Integrity:       {label: "Integrity", options: impactOptions},
	Availability:    {label: "Availability", options: impactOptions},
}

var privilegesScopeChanged = definition{
	label: "Privileges Required",
	options: []Option{
		{Code: "N", Weight: 0.85},
		{Code: "L", Weight: 0.68},
		{Code: "H", Weight: 0.5},
	},
}

// MetricInfo describes a metric for rendering a selection control.
type MetricInfo struct {
	Code    Metric       `json:"code"`
	Label   string       `json:"label"`
	Options []OptionInfo `json:"options"`
}

// OptionInfo is the display form of an Option.
type OptionInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Metrics returns label and option metadata for every base metric, in
// vector order. The returned slice is a fresh copy.
func Metrics() []MetricInfo {
	out := make([]MetricInfo, 0, numMetrics)
	for _, m := range BaseMetrics {
		def := catalog[m]
		info := MetricInfo{Code: m, Label: def.label, Options: make([]OptionInfo, 0, len(def.options))}
		for _, o := range def.options {
			info.Options = append(info.Options, OptionInfo{Code: o.Code, Name: o.Name})
		}
		out = append(out, info)
	}
	return out
}

// Label returns the human-readable label of m, or "" for unknown metrics.
func (m Metric) Label() string {
	return catalog[m].label
}

// Valid reports whether code is a known option of m.
func (m Metric) Valid(code string) bool {
	def, ok := catalog[m]
	if !ok {
		return false
	}
	_, ok = def.weight(code)
	return ok
}
