package executor

import "strings"

// sensitiveFlags marks the argv position immediately following a flag whose
// value must never reach a log line verbatim (spec §4.A design notes:
// "Sensitive arguments ... must be redacted in any log line produced by the
// executor itself").
var sensitiveFlags = map[string]bool{
	"--passphrase": true,
}

// Redact returns a copy of argv with passphrase values and repo::archive
// specifiers masked, suitable for inclusion in a log line or error message.
func Redact(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)

	redactNext := false
	for i, arg := range out {
		if redactNext {
			out[i] = "<redacted>"
			redactNext = false
			continue
		}
		if sensitiveFlags[arg] {
			redactNext = true
			continue
		}
		if strings.Contains(arg, "::") {
			out[i] = redactSpecifier(arg)
		}
	}
	return out
}

// redactSpecifier masks the archive name half of a repo::archive specifier
// while keeping the repository path visible, since the path alone is not
// sensitive and is useful in diagnostics.
func redactSpecifier(specifier string) string {
	idx := strings.Index(specifier, "::")
	if idx < 0 {
		return specifier
	}
	repo := specifier[:idx]
	return repo + "::<redacted>"
}
