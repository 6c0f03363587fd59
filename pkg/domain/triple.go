package domain

import "strings"

// TripleSeparator splits the fields of a knowledge file line.
const TripleSeparator = ":"

// Triple is a (subject, predicate, object) fact.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// ParseTriple reads a "subject:predicate:object[:ignored...]" line.
// Trailing empty fields are dropped before counting, so "a:b:" and "::" have
// fewer than three fields and are rejected.
func ParseTriple(line string) (Triple, bool) {
	fields := strings.Split(line, TripleSeparator)
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) < 3 {
		return Triple{}, false
	}
	return Triple{
		Subject:   fields[0],
		Predicate: fields[1],
		Object:    fields[2],
	}, true
}

// Key returns a stable identity for deduplication in stores.
func (t Triple) Key() string {
	return t.Subject + TripleSeparator + t.Predicate + TripleSeparator + t.Object
}
