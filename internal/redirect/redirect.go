// Package redirect parses the redirect table shipped inside the content
// repository. Parsing is total: malformed lines are dropped, never errored.
package redirect

import "strings"

// Parse builds a redirect table from raw file text.
//
// A line is kept only if it starts with "/" and contains at least one tab;
// the first two tab-delimited fields become (source, target). Lines with an
// empty source or target are dropped. When the same source appears more than
// once, the last occurrence wins.
func Parse(raw string) map[string]string {
	table := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		source, target, ok := parseLine(line)
		if !ok {
			continue
		}
		table[source] = target
	}
	return table
}

// parseLine is the keep/drop predicate for a single line.
func parseLine(line string) (source, target string, ok bool) {
	if !strings.HasPrefix(line, "/") || !strings.Contains(line, "\t") {
		return "", "", false
	}
	fields := strings.Split(line, "\t")
	source, target = fields[0], fields[1]
	if source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}
