package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartsheet/internal/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rota.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG-data"))
		case "/big.png":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), 32, logging.Nop())

	data, err := f.Fetch(context.Background(), srv.URL+"/rota.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG-data"), data)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(context.Background(), srv.URL+"/big.png")
	require.Error(t, err)
	assert.True(t, IsResponseTooLarge(err))

	_, err = f.Fetch(context.Background(), "file:///etc/passwd")
	require.Error(t, err)
}

func TestReadAllWithLimit(t *testing.T) {
	tests := []struct {
		name   string
		limit  int64
		tooBig bool
	}{
		{name: "within limit", limit: 5},
		{name: "over limit", limit: 2, tooBig: true},
		{name: "unlimited", limit: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAllWithLimit(bytes.NewReader([]byte("hello")), tt.limit)
			if tt.tooBig {
				require.Error(t, err)
				assert.True(t, IsResponseTooLarge(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "hello", string(got))
		})
	}
}
