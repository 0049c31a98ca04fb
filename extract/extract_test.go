package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PlainText(t *testing.T) {
	res, err := Extract([]byte("hello world"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, 0, res.Pages)
}

func TestExtract_UnknownTypeFallsBackToPlainText(t *testing.T) {
	res, err := Extract([]byte("csv,ish,content"), "application/x-whatever")
	require.NoError(t, err)
	assert.Equal(t, "csv,ish,content", res.Text)
}

func TestExtract_ContentTypeParameters(t *testing.T) {
	res, err := Extract([]byte("chars"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "chars", res.Text)
}

func TestPlainText_InvalidBytes(t *testing.T) {
	t.Run("invalid sequence replaced", func(t *testing.T) {
		got := PlainText([]byte{'o', 'k', 0xff, 0xfe, '!'})
		assert.True(t, strings.Contains(got, "ok"))
		assert.True(t, strings.Contains(got, "�"))
		assert.True(t, strings.Contains(got, "!"))
	})

	t.Run("valid multibyte passes through", func(t *testing.T) {
		assert.Equal(t, "héllo 日本", PlainText([]byte("héllo 日本")))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", PlainText(nil))
	})
}
