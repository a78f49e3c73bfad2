package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeInputNotFound, CategoryIO, SeverityFatal},
		{ErrCodeFileUnreadable, CategoryIO, SeverityWarning},
		{ErrCodeDiskFull, CategoryIO, SeverityFatal},
		{ErrCodeStoreOpen, CategoryStore, SeverityFatal},
		{ErrCodeStoreWrite, CategoryStore, SeverityFatal},
		{ErrCodeStoreLocked, CategoryStore, SeverityFatal},
		{ErrCodeInvalidPath, CategoryValidation, SeverityError},
		{ErrCodeInvalidQuery, CategoryValidation, SeverityError},
		{ErrCodeInternal, CategoryInternal, SeverityError},
		{ErrCodeExtractFailed, CategoryInternal, SeverityWarning},
	}

	for _, tt := range tests {
		err := New(tt.code, "msg", nil)
		assert.Equal(t, tt.category, err.Category, tt.code)
		assert.Equal(t, tt.severity, err.Severity, tt.code)
	}
}

func TestError_FormatsWithPath(t *testing.T) {
	err := New(ErrCodeFileUnreadable, "reading file", nil).WithPath("/archive/a.html")

	assert.Equal(t, "[ERR_202_FILE_UNREADABLE] reading file: /archive/a.html", err.Error())
}

func TestError_FormatsWithoutPath(t *testing.T) {
	err := New(ErrCodeInternal, "boom", nil)

	assert.Equal(t, "[ERR_501_INTERNAL] boom", err.Error())
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := stderrors.New("root cause")
	err := New(ErrCodeStoreWrite, "writing", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeStoreWrite, "first", nil)
	b := New(ErrCodeStoreWrite, "second", nil)
	c := New(ErrCodeStoreOpen, "other", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeStoreOpen, "open", nil)))
	assert.False(t, IsFatal(New(ErrCodeExtractFailed, "extract", nil)))
	assert.False(t, IsFatal(stderrors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidQuery, GetCode(New(ErrCodeInvalidQuery, "q", nil)))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
}
