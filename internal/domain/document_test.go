package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

func TestParseISBN(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{text: "9780002005883 A NOVEL THAT READERS", want: 9780002005883},
		{text: "  9780006178736\tRaised in the hot", want: 9780006178736},
		{text: "9780006178736.0 float export", want: 9780006178736},
		{text: "42", want: 42},
	}
	for _, tt := range tests {
		got, err := ParseISBN(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseISBN_Invalid(t *testing.T) {
	for _, text := range []string{"", "   ", "\"9780002005883 quoted", "abc 123"} {
		_, err := ParseISBN(text)
		assert.ErrorIs(t, err, domainerrors.ErrValidation, text)
	}
}

func TestDocument_ISBN(t *testing.T) {
	got, err := Document{Text: "123 desc", Score: 0.5}.ISBN()
	require.NoError(t, err)
	assert.Equal(t, int64(123), got)
}
