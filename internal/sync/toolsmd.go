package sync

import (
	"regexp"
	"strings"
)

// toolsKVRe matches one KEY=value pair per line in a TOOLS.md-style document.
var toolsKVRe = regexp.MustCompile(`^([A-Z0-9_]+)=(.*)$`)

// ParseToolsFile parses a key=value document as kept in the gateway's file
// store. Blank lines and "#" comment lines are ignored.
func ParseToolsFile(content string) map[string]string {
	values := make(map[string]string)
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := toolsKVRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		values[m[1]] = strings.TrimSpace(m[2])
	}
	return values
}
