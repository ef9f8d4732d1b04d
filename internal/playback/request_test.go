package playback

import (
	"bytes"
	"context"
	stdErrors "errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NamanBalaji/signedplay/internal/loader"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, stdErrors.New("disk full")
}

func TestRequest_Queries(t *testing.T) {
	u, _ := url.Parse("signed://media.example.com/movie.mp4")

	meta := NewMetadataRequest(u)
	assert.NotNil(t, meta.Metadata())
	assert.Nil(t, meta.Data())

	data := NewDataRequest(u, 10, 20, &bytes.Buffer{})
	assert.Nil(t, data.Metadata())
	if assert.NotNil(t, data.Data()) {
		assert.Equal(t, int64(10), data.Data().RequestedOffset())
		assert.Equal(t, int64(20), data.Data().RequestedLength())
		assert.False(t, data.Data().RequestsAllDataToEnd())
	}

	toEnd := NewDataToEndRequest(u, 5, &bytes.Buffer{})
	assert.True(t, toEnd.Data().RequestsAllDataToEnd())
}

func TestRequest_FinishOnce(t *testing.T) {
	u, _ := url.Parse("signed://media.example.com/movie.mp4")
	req := NewMetadataRequest(u)

	first := stdErrors.New("first")
	req.Finish(first)
	req.Finish(nil)

	<-req.Done()
	assert.True(t, req.IsFinished())
	assert.False(t, req.IsCancelled())
	assert.Equal(t, first, req.Err())
}

func TestRequest_AbandonResolves(t *testing.T) {
	u, _ := url.Parse("signed://media.example.com/movie.mp4")
	var out bytes.Buffer
	req := NewDataRequest(u, 0, 4, &out)

	req.Abandon()
	req.Finish(nil)
	req.Respond([]byte("late"))

	<-req.Done()
	assert.True(t, req.IsCancelled())
	assert.ErrorIs(t, req.Err(), context.Canceled)
	assert.Zero(t, out.Len())
}

func TestRequest_RespondStopsAfterWriteError(t *testing.T) {
	u, _ := url.Parse("signed://media.example.com/movie.mp4")
	req := NewDataRequest(u, 0, 8, failingWriter{})

	req.Respond([]byte("1234"))
	req.Respond([]byte("5678"))

	assert.EqualError(t, req.WriteErr(), "disk full")
	assert.Zero(t, req.Written())
}

func TestRequest_SetMetadata(t *testing.T) {
	u, _ := url.Parse("signed://media.example.com/movie.mp4")
	req := NewMetadataRequest(u)

	_, ok := req.ResourceMetadata()
	assert.False(t, ok)

	req.SetMetadata(loader.ResourceMetadata{ContentType: "video/mp4", ContentLength: 10})
	meta, ok := req.ResourceMetadata()
	assert.True(t, ok)
	assert.Equal(t, "video/mp4", meta.ContentType)
}
