package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "1234"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "1234", cursor.ID)

	_, err = DecodeCursor("not base64!")
	assert.Error(t, err)
}

func TestSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, 10, Pagination{PageSize: 10}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Size())
}

func TestTrim(t *testing.T) {
	idOf := func(v *int) string { return strconv.Itoa(*v) }
	rows := []*int{ptr(5), ptr(4), ptr(3)}

	page, info := Trim(rows, 2, idOf)
	require.Len(t, page, 2)
	assert.True(t, info.HasMore)
	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "4", cursor.ID)

	page, info = Trim(rows[:1], 2, idOf)
	assert.Len(t, page, 1)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	page, info = Trim([]*int{}, 2, idOf)
	assert.Empty(t, page)
	assert.False(t, info.HasMore)
}

func ptr(v int) *int { return &v }
