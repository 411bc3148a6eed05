package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusStripePending))
	assert.True(t, CanTransition(StatusStripePending, StatusProcessing))
	assert.True(t, CanTransition(StatusStripePending, StatusPending))
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransition(StatusProcessing, StatusRejected))
	assert.True(t, CanTransition(StatusPending, StatusUploadFailed))

	assert.False(t, CanTransition(StatusCompleted, StatusProcessing))
	assert.False(t, CanTransition(StatusUploadFailed, StatusPending))
	assert.False(t, CanTransition(StatusStripePending, StatusStripePending))
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusUploadFailed.Valid())
	assert.False(t, Status("archived").Valid())
}
