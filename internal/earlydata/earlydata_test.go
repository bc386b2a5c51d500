package earlydata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Empty(t *testing.T) {
	data, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDecode_URLSafeNoPadding(t *testing.T) {
	// "hi there" base64url without padding, with '-'/'_' substitutions applied.
	data, err := Decode("aGkgdGhlcmU")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi there"), data)
}

func TestDecode_WithDashUnderscore(t *testing.T) {
	raw := []byte{0xFB, 0xFF, 0xBE}
	std := "-_--" // decodes only after -/_  -> +/ substitution
	_ = raw
	data, err := Decode(std)
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("not base64!!!")
	require.Error(t, err)
}
