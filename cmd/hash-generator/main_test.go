package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	t.Run("hashes arguments", func(t *testing.T) {
		var out, errOut bytes.Buffer
		require.NoError(t, run(strings.NewReader(""), &out, &errOut, 4, false, []string{"Str0ng!Pass"}))

		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Str0ng!Pass")))
		assert.Empty(t, errOut.String())
	})

	t.Run("reads stdin lines", func(t *testing.T) {
		var out, errOut bytes.Buffer
		require.NoError(t, run(strings.NewReader("first\n\nsecond\r\n"), &out, &errOut, 4, false, nil))
		assert.Len(t, strings.Fields(out.String()), 2)
	})

	t.Run("warns on weak password", func(t *testing.T) {
		var out, errOut bytes.Buffer
		require.NoError(t, run(strings.NewReader(""), &out, &errOut, 4, true, []string{"weak"}))
		assert.Contains(t, errOut.String(), "warning:")
		assert.NotEmpty(t, out.String())
	})

	t.Run("rejects cost", func(t *testing.T) {
		var out, errOut bytes.Buffer
		err := run(strings.NewReader(""), &out, &errOut, 3, false, []string{"x"})
		assert.ErrorContains(t, err, "out of range")
	})
}
