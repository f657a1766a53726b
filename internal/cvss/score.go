package cvss

import (
	"math"
	"strings"
)

// Scope selects the formula variant and the privileges table.
type Scope string

const (
	ScopeUnchanged Scope = "U"
	ScopeChanged   Scope = "C"
)

// VectorPrefix is the label every emitted vector starts with.
const VectorPrefix = "CVSS:3.1"

// Selection maps each base metric to the chosen option code. Absent or
// empty entries mean the metric has not been picked yet.
type Selection map[Metric]string

// Missing returns the metrics that are unselected or hold an option code
// the catalog does not know, in vector order.
func (s Selection) Missing() []Metric {
	var out []Metric
	for _, m := range BaseMetrics {
		if !m.Valid(s[m]) {
			out = append(out, m)
		}
	}
	return out
}

// Complete reports whether every base metric holds a known option.
func (s Selection) Complete() bool {
	return len(s.Missing()) == 0
}

// Vector is a resolved base vector in which every option code is known
// to the catalog. The zero value is not usable; obtain one from Resolve
// or ParseVector.
type Vector struct {
	codes [numMetrics]string
}

// Resolve validates sel. It returns false when any metric is unselected
// or unknown; partial input never resolves.
func Resolve(sel Selection) (Vector, bool) {
	var v Vector
	for i, m := range BaseMetrics {
		code := sel[m]
		if !m.Valid(code) {
			return Vector{}, false
		}
		v.codes[i] = code
	}
	return v, true
}

func (v Vector) code(m Metric) string {
	for i, bm := range BaseMetrics {
		if bm == m {
			return v.codes[i]
		}
	}
	return ""
}

func (v Vector) weight(m Metric) float64 {
	w, _ := catalog[m].weight(v.code(m))
	return w
}

// Scope returns the scope of the vector.
func (v Vector) Scope() Scope {
	return Scope(v.code(ScopeMetric))
}

// Selection returns the option codes of v as a new Selection.
func (v Vector) Selection() Selection {
	sel := make(Selection, numMetrics)
	for i, m := range BaseMetrics {
		sel[m] = v.codes[i]
	}
	return sel
}

// String renders the canonical CVSS:3.1 vector string.
func (v Vector) String() string {
	var b strings.Builder
	b.WriteString(VectorPrefix)
	for i, m := range BaseMetrics {
		b.WriteByte('/')
		b.WriteString(string(m))
		b.WriteByte(':')
		b.WriteString(v.codes[i])
	}
	return b.String()
}

// Result is the outcome of scoring one complete selection.
type Result struct {
	Score    float64  `json:"score"`
	Vector   string   `json:"vector"`
	Severity Severity `json:"severity"`
}

// Score computes the base score of sel. The boolean is false, and the
// Result empty, whenever sel is incomplete or holds unknown codes.
func Score(sel Selection) (Result, bool) {
	v, ok := Resolve(sel)
	if !ok {
		return Result{}, false
	}
	return v.Score(), true
}

// Score computes the base score of a resolved vector.
func (v Vector) Score() Result {
	score := roundUp(v.rawScore())
	return Result{
		Score:    score,
		Vector:   v.String(),
		Severity: SeverityOf(score),
	}
}

func (v Vector) rawScore() float64 {
	av := v.weight(AttackVector)
	ac := v.weight(AttackComplexity)
	ui := v.weight(UserInteraction)

	iss := 1 - (1-v.weight(Confidentiality))*(1-v.weight(Integrity))*(1-v.weight(Availability))

	var pr, impact, scale float64
	switch v.Scope() {
	case ScopeUnchanged:
		pr, _ = catalog[PrivilegesRequired].weight(v.code(PrivilegesRequired))
		impact = 6.42 * iss
		scale = 1
	case ScopeChanged:
		pr, _ = privilegesScopeChanged.weight(v.code(PrivilegesRequired))
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
		scale = 1.08
	}

	exploitability := 8.22 * av * ac * pr * ui

	if impact <= 0 {
		return 0
	}
	return math.Min(scale*(impact+exploitability), 10)
}

// roundUp rounds x up to one decimal place. Base scores are ceiling
// rounded: 4.71 reports as 4.8.
func roundUp(x float64) float64 {
	return math.Ceil(x*10) / 10
}
