package executor

import (
	"strconv"
	"strings"
)

// Progress is the parsed numeric/path snapshot accumulated from a running
// Borg command's output (spec §4.A, §6).
type Progress struct {
	OriginalBytes     int64
	CompressedBytes   int64
	DeduplicatedBytes int64
	NumFiles          int64
	CurrentPath       string

	ArchiveName        string
	ArchiveFingerprint string
	TimeStart          string
	TimeEnd            string
}

// applyProgressLine updates snap in place if line matches one of the
// recognised formats, returning true when it did. Two shapes are
// recognised: the five-field whitespace-separated progress line
// (orig comp dedup nfiles path), and the labelled archive-metadata lines
// emitted at the end of a backup/info run.
func applyProgressLine(snap *Progress, line string) bool {
	if parseProgressFields(snap, line) {
		return true
	}
	return parseLabelledField(snap, line)
}

func parseProgressFields(snap *Progress, line string) bool {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return false
	}
	orig, err1 := strconv.ParseInt(fields[0], 10, 64)
	comp, err2 := strconv.ParseInt(fields[1], 10, 64)
	dedup, err3 := strconv.ParseInt(fields[2], 10, 64)
	nfiles, err4 := strconv.ParseInt(fields[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	snap.OriginalBytes = orig
	snap.CompressedBytes = comp
	snap.DeduplicatedBytes = dedup
	snap.NumFiles = nfiles
	snap.CurrentPath = fields[4]
	return true
}

var labelledPrefixes = []struct {
	prefix string
	assign func(snap *Progress, value string)
}{
	{"Archive name:", func(s *Progress, v string) { s.ArchiveName = v }},
	{"Archive fingerprint:", func(s *Progress, v string) { s.ArchiveFingerprint = v }},
	{"Time (start):", func(s *Progress, v string) { s.TimeStart = v }},
	{"Time (end):", func(s *Progress, v string) { s.TimeEnd = v }},
}

func parseLabelledField(snap *Progress, line string) bool {
	for _, lp := range labelledPrefixes {
		if strings.HasPrefix(line, lp.prefix) {
			value := strings.TrimSpace(strings.TrimPrefix(line, lp.prefix))
			lp.assign(snap, value)
			return true
		}
	}
	return false
}
