package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobOpenFor(t *testing.T) {
	now := time.Now()
	base := Job{
		Status:   JobApproved,
		IsActive: true,
		Deadline: now.Add(24 * time.Hour),
	}

	assert.True(t, base.OpenFor(now))

	pending := base
	pending.Status = JobPending
	assert.False(t, pending.OpenFor(now))

	rejected := base
	rejected.Status = JobRejected
	assert.False(t, rejected.OpenFor(now))

	deleted := base
	deleted.IsActive = false
	assert.False(t, deleted.OpenFor(now))

	expired := base
	expired.Deadline = now.Add(-time.Minute)
	assert.False(t, expired.OpenFor(now))

	// The deadline instant itself is still open.
	atDeadline := base
	atDeadline.Deadline = now
	assert.True(t, atDeadline.OpenFor(now))
}
