package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func TestFolioErrorString(t *testing.T) {
	err := NewRenderError(ErrCodeDocumentTooDeep, "document too deeply nested").
		WithContext("max_depth", 4)

	assert.Equal(t, "[ERR_DOCUMENT_TOO_DEEP] document too deeply nested max_depth=4", err.Error())

	wrapped := NewUpstreamError(ErrCodeUpstreamRequest, "cms request failed", fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, "[ERR_UPSTREAM_REQUEST] cms request failed: dial tcp: refused", wrapped.Error())
}

func TestFolioErrorIs(t *testing.T) {
	sentinel := NewNotFoundError(ErrCodePostNotFound, "post not found")
	err := fmt.Errorf("loading page: %w", sentinel.WithContext("slug", "hello"))

	assert.True(t, stderrors.Is(err, sentinel))
	assert.False(t, stderrors.Is(err, NewNotFoundError("ERR_OTHER", "other")))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRender(err))
}

func TestWithContextDoesNotMutate(t *testing.T) {
	sentinel := NewRenderError(ErrCodeDocumentTooDeep, "too deep")
	_ = sentinel.WithContext("depth", 10)

	assert.Empty(t, sentinel.Context)
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewInternalError(ErrCodeInternalError, "failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Same(t, cause, stderrors.Unwrap(err))
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{NewValidationError(ErrCodeValidationFailed, "bad"), http.StatusBadRequest},
		{NewNotFoundError(ErrCodePostNotFound, "missing"), http.StatusNotFound},
		{NewRenderError(ErrCodeDocumentTooDeep, "deep"), http.StatusUnprocessableEntity},
		{NewUpstreamError(ErrCodeUpstreamStatus, "cms", nil), http.StatusBadGateway},
		{NewConfigError(ErrCodeConfigInvalid, "cfg"), http.StatusInternalServerError},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.status, HTTPStatus(tc.err))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, NewNotFoundError(ErrCodePostNotFound, "missing"))
	handler.Handle(ctx, NewUpstreamError(ErrCodeUpstreamStatus, "cms", nil))
	handler.Handle(ctx, stderrors.New("plain"))

	assert.Equal(t, []string{"Request failed"}, logger.warns)
	assert.Equal(t, []string{"Error occurred", "Unhandled error occurred"}, logger.errors)
}
