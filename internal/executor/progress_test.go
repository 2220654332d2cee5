package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyProgressLine_Numeric(t *testing.T) {
	snap := &Progress{}
	ok := applyProgressLine(snap, "1024 512 256 10 /home/user/file.txt")
	assert.True(t, ok)
	assert.Equal(t, int64(1024), snap.OriginalBytes)
	assert.Equal(t, int64(512), snap.CompressedBytes)
	assert.Equal(t, int64(256), snap.DeduplicatedBytes)
	assert.Equal(t, int64(10), snap.NumFiles)
	assert.Equal(t, "/home/user/file.txt", snap.CurrentPath)
}

func TestApplyProgressLine_WrongFieldCount(t *testing.T) {
	snap := &Progress{}
	assert.False(t, applyProgressLine(snap, "not a progress line"))
}

func TestApplyProgressLine_NonNumericFields(t *testing.T) {
	snap := &Progress{}
	assert.False(t, applyProgressLine(snap, "a b c d /some/path"))
}

func TestApplyProgressLine_LabelledFields(t *testing.T) {
	snap := &Progress{}
	assert.True(t, applyProgressLine(snap, "Archive fingerprint: abcdef1234"))
	assert.Equal(t, "abcdef1234", snap.ArchiveFingerprint)

	assert.True(t, applyProgressLine(snap, "Time (start): Fri, 2026-07-31 10:00:00"))
	assert.Equal(t, "Fri, 2026-07-31 10:00:00", snap.TimeStart)

	assert.True(t, applyProgressLine(snap, "Time (end):   Fri, 2026-07-31 10:05:00"))
	assert.Equal(t, "Fri, 2026-07-31 10:05:00", snap.TimeEnd)
}

func TestApplyProgressLine_UnrecognisedLabel(t *testing.T) {
	snap := &Progress{}
	assert.False(t, applyProgressLine(snap, "Some other: value"))
}
