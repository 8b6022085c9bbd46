package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token, err := Encode(Cursor{SwipeID: 42, CreatedUnix: 1700000000000})
	require.NoError(t, err)

	got, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.SwipeID)
	assert.Equal(t, int64(1700000000000), got.CreatedUnix)
}

func TestDecodeEmptyTokenIsFirstPage(t *testing.T) {
	got, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not base64!")
	assert.Error(t, err)

	// valid base64, invalid payload
	_, err = Decode("aGVsbG8=")
	assert.Error(t, err)
}
