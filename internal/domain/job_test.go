package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_Validate_EmptyCompositeTaskList(t *testing.T) {
	j := &Job{Composite: true}
	err := j.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmit)
}

func TestJob_FirstFailedTaskIndex(t *testing.T) {
	j := &Job{Tasks: []*Task{
		{Status: StatusCompleted},
		{Status: StatusFailed},
		{Status: StatusSkipped},
	}}
	assert.Equal(t, 1, j.FirstFailedTaskIndex())
}

func TestJob_FirstFailedTaskIndex_NoneFailed(t *testing.T) {
	j := &Job{Tasks: []*Task{{Status: StatusCompleted}}}
	assert.Equal(t, -1, j.FirstFailedTaskIndex())
}

func TestJob_DeepCopy_Independent(t *testing.T) {
	rc := 0
	j := &Job{
		ID:     "job-1",
		Tasks:  []*Task{{Kind: TaskBackup, Params: map[string]any{"source_path": "/data"}}},
		ReturnCode: &rc,
	}
	cp := j.DeepCopy()

	cp.Tasks[0].Params["source_path"] = "/other"
	*cp.ReturnCode = 1

	assert.Equal(t, "/data", j.Tasks[0].Params["source_path"])
	assert.Equal(t, 0, *j.ReturnCode)
}

func TestJob_CurrentTask(t *testing.T) {
	j := &Job{
		Composite:        true,
		Tasks:            []*Task{{Kind: TaskBackup}, {Kind: TaskPrune}},
		CurrentTaskIndex: 1,
	}
	got := j.CurrentTask()
	require.NotNil(t, got)
	assert.Equal(t, TaskPrune, got.Kind)
}

func TestJob_CurrentTask_OutOfRange(t *testing.T) {
	j := &Job{Composite: true, Tasks: []*Task{{Kind: TaskBackup}}, CurrentTaskIndex: 5}
	assert.Nil(t, j.CurrentTask())
}

func TestStatus_IsTerminal(t *testing.T) {
	cases := map[Status]bool{
		StatusPending:   false,
		StatusQueued:    false,
		StatusRunning:   false,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
		StatusSkipped:   true,
	}
	for status, want := range cases {
		assert.Equal(t, want, status.IsTerminal(), "status %s", status)
	}
}
