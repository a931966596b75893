package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrosole/storefront/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir(), "http://localhost:8080/static")
	require.NoError(t, err)
	return s
}

func TestPutAndExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	result, err := s.Put(ctx, &storage.PutInput{
		Key:         "products/p-1/shoe.jpg",
		ContentType: "image/jpeg",
		Data:        strings.NewReader("jpeg bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "products/p-1/shoe.jpg", result.Key)
	assert.Equal(t, "http://localhost:8080/static/products/p-1/shoe.jpg", result.URL)

	exists, err := s.Exists(ctx, "products/p-1/shoe.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := os.ReadFile(filepath.Join(s.baseDir, "products", "p-1", "shoe.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Put(ctx, &storage.PutInput{
		Key:  "products/p-1/a.png",
		Data: strings.NewReader("png"),
	})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "products/p-1/a.png"))

	exists, err := s.Exists(ctx, "products/p-1/a.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDelete_Missing(t *testing.T) {
	s := newTestStorage(t)

	err := s.Delete(context.Background(), "products/nope.jpg")
	assert.ErrorContains(t, err, "blob not found")
}

func TestPut_RejectsTraversal(t *testing.T) {
	s := newTestStorage(t)

	for _, key := range []string{"", "../escape.jpg", "a/../../escape.jpg", "/etc/passwd"} {
		_, err := s.Put(context.Background(), &storage.PutInput{
			Key:  key,
			Data: strings.NewReader("x"),
		})
		assert.Error(t, err, key)
	}
}

func TestURL(t *testing.T) {
	s, err := New(t.TempDir(), "http://cdn.example/static/")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example/static/products/x.jpg", s.URL("products/x.jpg"))
}
