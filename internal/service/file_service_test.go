package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/storage"
)

func TestFileServiceOpen(t *testing.T) {
	lms := newFakeLMS()
	signer := storage.NewFileTokenSigner("secret", time.Minute)
	svc := NewFileService(fakeFiles{lms}, newFakeBlobs(), signer)

	token, _, err := signer.Generate(1, "h1")
	require.NoError(t, err)

	content, err := svc.Open(context.Background(), 1, token)
	require.NoError(t, err)
	defer content.Reader.Close()
	body, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Equal(t, "cat-bytes", string(body))
	assert.Equal(t, "image/png", content.MimeType)

	_, err = svc.Open(context.Background(), 3, token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.Open(context.Background(), 1, "")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.Open(context.Background(), 404, token)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestFileServiceMissingBlob(t *testing.T) {
	lms := newFakeLMS()
	signer := storage.NewFileTokenSigner("secret", time.Minute)
	blobs := newFakeBlobs()
	delete(blobs.data, "h1")
	svc := NewFileService(fakeFiles{lms}, blobs, signer)

	token, _, err := signer.Generate(1, "h1")
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), 1, token)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
