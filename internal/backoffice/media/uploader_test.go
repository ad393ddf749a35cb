package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/image/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "unsigned-preset", r.FormValue("upload_preset"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "logo.png", header.Filename)

		body, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "fake-png-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example/logo.png","url":"http://cdn.example/logo.png"}`))
	}))
	defer srv.Close()

	u := NewUploader(srv.URL, "unsigned-preset")
	url, err := u.Upload(context.Background(), "logo.png", strings.NewReader("fake-png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/logo.png", url)
}

func TestUploadFallsBackToPlainURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"http://cdn.example/logo.png"}`))
	}))
	defer srv.Close()

	u := NewUploader(srv.URL, "unsigned-preset")
	url, err := u.Upload(context.Background(), "logo.png", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example/logo.png", url)
}

func TestUploadHostFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid preset", http.StatusBadRequest)
	}))
	defer srv.Close()

	u := NewUploader(srv.URL, "unsigned-preset")
	_, err := u.Upload(context.Background(), "logo.png", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUpload)
}

func TestUploadMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	u := NewUploader(srv.URL, "unsigned-preset")
	_, err := u.Upload(context.Background(), "logo.png", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUpload)
}
