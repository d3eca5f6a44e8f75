package modelscope

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/italolelis/modelscope_downloader/internal/dc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingJSON = `{
  "Code": 200,
  "Success": true,
  "Message": "success",
  "Data": {
    "Files": [
      {"Name": "config.json", "Path": "config.json", "Size": 512, "Sha256": "abc", "Type": "blob"},
      {"Name": "weights", "Path": "weights", "Size": 0, "Sha256": "", "Type": "tree"},
      {"Name": "model.bin", "Path": "weights/model.bin", "Size": 2048, "Sha256": "def", "Type": "blob"}
    ]
  }
}`

func TestListFiles(t *testing.T) {
	var gotPath, gotQuery, gotUA, gotCookie string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.UserAgent()
		gotCookie = r.Header.Get("Cookie")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, listingJSON)
	}))
	defer srv.Close()

	httpClient := NewHTTPClient(HTTPClientConfig{Cookie: "m_session_id=abc"})
	client := NewClient(srv.URL+"/", httpClient, NewCookieStore(t.TempDir()))

	entries, err := client.ListFiles(context.Background(), "Qwen/Qwen2-0.5B")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/models/Qwen/Qwen2-0.5B/repo/files", gotPath)
	assert.Equal(t, "Recursive=true", gotQuery)
	assert.Equal(t, UserAgent, gotUA)
	assert.Equal(t, "m_session_id=abc", gotCookie)

	require.Len(t, entries, 3)
	assert.Equal(t, dc.Entry{Name: "config.json", Path: "config.json", Size: 512, Sha256: "abc", Kind: dc.KindBlob}, entries[0])
	assert.Equal(t, dc.KindTree, entries[1].Kind)
	assert.Len(t, dc.Blobs(entries), 2)
}

func TestListFiles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "non-2xx status",
			status: http.StatusNotFound,
			body:   "model not found",
			checkFn: func(t *testing.T, err error) {
				var target *dc.ManifestUnavailableError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, http.StatusNotFound, target.StatusCode)
				assert.Contains(t, err.Error(), "login is required")
			},
		},
		{
			name:   "success flag false",
			status: http.StatusOK,
			body:   `{"Code":10010205001,"Success":false,"Message":"repo not exists"}`,
			checkFn: func(t *testing.T, err error) {
				var target *dc.ManifestRejectedError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "repo not exists", target.Message)
			},
		},
		{
			name:   "missing data",
			status: http.StatusOK,
			body:   `{"Code":200,"Success":true,"Message":"ok"}`,
			checkFn: func(t *testing.T, err error) {
				var target *dc.ManifestRejectedError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"Success":`,
			checkFn: func(t *testing.T, err error) {
				var target *dc.ManifestUnavailableError
				require.ErrorAs(t, err, &target)
				assert.Zero(t, target.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, NewHTTPClient(HTTPClientConfig{}), NewCookieStore(t.TempDir()))

			_, err := client.ListFiles(context.Background(), "org/model")
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestListFiles_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(srv.URL, NewHTTPClient(HTTPClientConfig{}), NewCookieStore(t.TempDir()))

	_, err := client.ListFiles(context.Background(), "org/model")

	var target *dc.ManifestUnavailableError
	require.ErrorAs(t, err, &target)
	assert.Zero(t, target.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestFileURL(t *testing.T) {
	client := NewClient("https://modelscope.cn", http.DefaultClient, nil)

	assert.Equal(t,
		"https://modelscope.cn/models/org/model/resolve/master/weights/model%20v1.bin",
		client.FileURL("org/model", "weights/model v1.bin"))
}

func TestLoginAndLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/login", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["AccessToken"] != "good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, "invalid token")

			return
		}

		http.SetCookie(w, &http.Cookie{Name: "m_session_id", Value: "s1"})
		http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: "c1"})
		_, _ = io.WriteString(w, `{"Success":true}`)
	}))
	defer srv.Close()

	store := NewCookieStore(t.TempDir())
	client := NewClient(srv.URL, NewHTTPClient(HTTPClientConfig{}), store)

	err := client.Login(context.Background(), "bad-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	require.NoError(t, client.Login(context.Background(), "good-token"))

	header, err := store.Header()
	require.NoError(t, err)
	assert.Equal(t, "csrf_token=c1; m_session_id=s1", header)

	require.NoError(t, client.Logout())
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))

	// Logging out twice is fine.
	require.NoError(t, client.Logout())

	header, err = store.Header()
	require.NoError(t, err)
	assert.Empty(t, header)
}

func TestCookieStore_CorruptFile(t *testing.T) {
	store := NewCookieStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse cookies")
}

func TestNewHTTPClient_BearerToken(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	resp, err := NewHTTPClient(HTTPClientConfig{AccessToken: "tok"}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok", gotAuth)
}
