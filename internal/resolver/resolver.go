// Package resolver maps a user-supplied name to a canonical catalog record.
// Exact case-insensitive matching runs first; vaccines additionally get a
// fuzzy pass so "covid vacine" still resolves. Below the similarity threshold
// the resolver lists the catalog options instead of guessing.
package resolver

import (
	"sort"
	"strings"
)

// MinSimilarity is the floor for accepting a fuzzy match.
const MinSimilarity = 0.70

// Candidate is one catalog entry offered for matching.
type Candidate struct {
	ID       string
	Name     string
	Quantity int
}

// Result is the outcome of a resolution attempt. Exactly one of Match or
// Options is populated; both empty means the catalog itself was empty.
type Result struct {
	Match   *Candidate
	Options []string
}

// Resolved reports whether a single catalog entry was chosen.
func (r Result) Resolved() bool { return r.Match != nil }

// ResolveFuzzy matches name against the candidates: exact case-insensitive
// first, then the single best candidate with similarity >= MinSimilarity.
// Anything weaker returns the option list.
func ResolveFuzzy(name string, candidates []Candidate) Result {
	name = strings.TrimSpace(name)
	if name == "" || len(candidates) == 0 {
		return Result{Options: names(candidates)}
	}

	lower := strings.ToLower(name)
	for i := range candidates {
		if strings.ToLower(strings.TrimSpace(candidates[i].Name)) == lower {
			c := candidates[i]
			return Result{Match: &c}
		}
	}

	bestScore := 0.0
	bestIdx := -1
	for i := range candidates {
		score := Similarity(lower, strings.ToLower(candidates[i].Name))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 && bestScore >= MinSimilarity {
		c := candidates[bestIdx]
		return Result{Match: &c}
	}

	return Result{Options: names(candidates)}
}

// ResolveExact matches name by exact lowercase comparison only, with no fuzzy
// pass. Used for medicine catalogs where a near-miss must not silently pick a
// different drug.
func ResolveExact(name string, candidates []Candidate) Result {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Result{Options: names(candidates)}
	}
	for i := range candidates {
		if strings.ToLower(strings.TrimSpace(candidates[i].Name)) == name {
			c := candidates[i]
			return Result{Match: &c}
		}
	}
	return Result{Options: names(candidates)}
}

// Similarity computes the Sørensen-Dice coefficient over character bigrams.
// Returns a value in [0, 1]; identical strings score 1.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	matches := 0
	for i := 0; i < len(b)-1; i++ {
		g := b[i : i+2]
		if bigrams[g] > 0 {
			bigrams[g]--
			matches++
		}
	}

	return 2 * float64(matches) / float64(len(a)-1+len(b)-1)
}

func names(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

// OptionsMessage formats the re-ask shown when nothing resolves.
func OptionsMessage(kind string, options []string) string {
	if len(options) == 0 {
		return "I couldn't find any " + kind + "s in your records. Please add one first."
	}
	var sb strings.Builder
	sb.WriteString("I couldn't find that " + kind + ". Here are the " + kind + "s I know about:\n")
	for _, o := range options {
		sb.WriteString("• " + o + "\n")
	}
	sb.WriteString("Please reply with one of the names above.")
	return sb.String()
}
