package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/ncw/swift/v2"
	"github.com/ncw/swift/v2/swifttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileSystem(t *testing.T) storage.Backend {
	t.Helper()

	backend, err := storage.NewFileSystem(t.TempDir())
	require.NoError(t, err)
	return backend
}

func swiftBackend(t *testing.T) storage.Backend {
	t.Helper()

	srv, err := swifttest.NewSwiftServer("localhost")
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	conn := &swift.Connection{
		UserName: swifttest.TEST_ACCOUNT,
		ApiKey:   swifttest.TEST_ACCOUNT,
		AuthUrl:  srv.AuthURL,
	}

	backend, err := storage.NewSwift(context.Background(), conn, "images")
	require.NoError(t, err)
	return backend
}

func write(t *testing.T, backend storage.Backend, filename, content string) {
	t.Helper()

	w, err := backend.Writer(filename)
	require.NoError(t, err)
	_, err = io.Copy(w, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestBackends(t *testing.T) {
	backends := map[string]func(*testing.T) storage.Backend{
		"file_system": fileSystem,
		"swift":       swiftBackend,
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			backend := build(t)
			assert.Equal(t, name, backend.Name())

			exist, err := backend.Exist("RPI_1_20240310_101010_123.jpg")
			require.NoError(t, err)
			assert.False(t, exist)

			write(t, backend, "RPI_1_20240310_101010_123.jpg", "mosquito")
			write(t, backend, "RPI_2_20240310_101010_456.png", "larva")

			exist, err = backend.Exist("RPI_1_20240310_101010_123.jpg")
			require.NoError(t, err)
			assert.True(t, exist)

			r, err := backend.Reader("RPI_1_20240310_101010_123.jpg")
			require.NoError(t, err)
			payload, err := io.ReadAll(r)
			require.NoError(t, err)
			r.Close()
			assert.Equal(t, "mosquito", string(payload))

			filenames, err := backend.Filenames()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"RPI_1_20240310_101010_123.jpg", "RPI_2_20240310_101010_456.png"}, filenames)

			require.NoError(t, backend.Remove("RPI_1_20240310_101010_123.jpg"))
			require.NoError(t, backend.Remove("RPI_1_20240310_101010_123.jpg"))

			exist, err = backend.Exist("RPI_1_20240310_101010_123.jpg")
			require.NoError(t, err)
			assert.False(t, exist)
		})
	}
}

func TestFileSystemReaderMissing(t *testing.T) {
	backend := fileSystem(t)

	_, err := backend.Reader("missing.jpg")
	assert.Error(t, err)
}
