// Package topicmatch implements broker-style topic pattern matching:
// '+' matches exactly one segment, a trailing '#' matches zero or more.
package topicmatch

import "strings"

// Split breaks a broker topic into its '/'-delimited segments.
func Split(topic string) []string {
	return strings.Split(topic, "/")
}

// Matches reports whether topic matches the subscription pattern.
//
// A '#' is only meaningful as the final pattern segment; a '#' found
// anywhere else is treated as a literal segment (the middle-position case
// is undefined by the broker convention this matcher follows).
func Matches(pattern, topic string) bool {
	return MatchesSegments(Split(pattern), Split(topic))
}

// MatchesSegments matches already-split segments, useful when the topic
// has already been split once per inbound message (as it is in the parsed
// message) and shouldn't be re-split per point specification.
func MatchesSegments(pattern, topic []string) bool {
	pi, ti := 0, 0
	for pi < len(pattern) && ti < len(topic) {
		switch pattern[pi] {
		case "#":
			if pi != len(pattern)-1 {
				// Middle-position '#': treat as a literal segment.
				if pattern[pi] != topic[ti] {
					return false
				}
				pi++
				ti++
				continue
			}
			return true
		case "+":
			pi++
			ti++
		default:
			if pattern[pi] != topic[ti] {
				return false
			}
			pi++
			ti++
		}
	}

	// Trailing '#' matches zero remaining segments.
	if pi < len(pattern) && pattern[pi] == "#" && pi == len(pattern)-1 {
		return true
	}

	return pi == len(pattern) && ti == len(topic)
}
