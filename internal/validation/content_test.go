package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredText(t *testing.T) {
	t.Parallel()

	got, err := RequiredText("text", "  hello \n", PostTextMaxLength)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = RequiredText("text", " \t\n ", PostTextMaxLength)
	assert.EqualError(t, err, "text is required")

	_, err = RequiredText("comment", strings.Repeat("й", CommentTextMaxLength+1), CommentTextMaxLength)
	assert.Error(t, err)

	_, err = RequiredText("comment", strings.Repeat("й", CommentTextMaxLength), CommentTextMaxLength)
	assert.NoError(t, err)
}

func TestValidateGroupSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		slug    string
		wantErr bool
	}{
		{"cats", false},
		{"long_reads-2024", false},
		{"", true},
		{"Cats", true},
		{"with space", true},
		{strings.Repeat("a", GroupSlugMaxLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if tt.wantErr {
				assert.Error(t, ValidateGroupSlug(tt.slug))
			} else {
				assert.NoError(t, ValidateGroupSlug(tt.slug))
			}
		})
	}
}

func TestHasHeaderBreak(t *testing.T) {
	t.Parallel()
	assert.False(t, HasHeaderBreak("Hello there"))
	assert.True(t, HasHeaderBreak("Hello\r\nBcc: victim@example.com"))
	assert.True(t, HasHeaderBreak("Hello\nthere"))
}
