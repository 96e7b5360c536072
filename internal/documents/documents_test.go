package documents

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckContentType(t *testing.T) {
	ct, err := CheckContentType("Application/PDF; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	ct, err = CheckContentType("image/jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	_, err = CheckContentType("text/html")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("prod/", 7, 3, "../../etc/my insurance.pdf")
	assert.True(t, strings.HasPrefix(key, "prod/users/7/vehicles/3/"), key)
	assert.True(t, strings.HasSuffix(key, "-my_insurance.pdf"), key)
	assert.NotContains(t, key, "..")
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "card.png", SanitizeFileName(`C:\Users\me\card.png`))
	assert.Equal(t, "document", SanitizeFileName("..."))
	assert.Equal(t, "r_sum_.pdf", SanitizeFileName("résumé.pdf"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Put(ctx, "a/b", "image/png", strings.NewReader("png-bytes"), 9))

	body, info, err := m.Get(ctx, "a/b")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, ObjectInfo{ContentType: "image/png", Size: 9}, info)

	require.NoError(t, m.Delete(ctx, "a/b"))
	_, _, err = m.Get(ctx, "a/b")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}
