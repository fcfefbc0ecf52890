package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/jobs"
)

func jobFor(payload interface{}) jobs.Job {
	return jobs.Job{ID: "job-1", Type: BlobPurgeJobType, Payload: payload}
}

func TestBlobPurgeDeletesUnreferencedBlobs(t *testing.T) {
	lms := newFakeLMS()
	blobs := newFakeBlobs()
	purger := NewBlobPurgeService(fakeFiles{lms}, blobs, nil)

	require.NoError(t, purger.Handle(context.Background(), jobFor("h1")))
	assert.Empty(t, blobs.deleted)

	lms.files = lms.files[1:]
	require.NoError(t, purger.Handle(context.Background(), jobFor("h1")))
	assert.Equal(t, []string{"h1"}, blobs.deleted)

	require.NoError(t, purger.Handle(context.Background(), jobFor(42)))
}
