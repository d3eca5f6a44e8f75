package modelscope

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// UserAgent is sent with every request; the file endpoints reject unknown clients.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/89.0.4389.90 Safari/537.36"

const defaultConnectTimeout = 10 * time.Second

// HTTPClientConfig configures the client shared by the manifest source and
// every file transfer.
type HTTPClientConfig struct {
	ConnectTimeout time.Duration
	Cookie         string // value of the Cookie header, empty when logged out
	AccessToken    string // optional bearer token
}

// NewHTTPClient builds a client that is safe for concurrent use. Only
// connection establishment is bounded; large bodies may stream for as long
// as they need.
func NewHTTPClient(cfg HTTPClientConfig) *http.Client {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	base.TLSHandshakeTimeout = timeout

	var rt http.RoundTripper = base

	if cfg.AccessToken != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken}),
			Base:   rt,
		}
	}

	rt = &headerTransport{base: rt, cookie: cfg.Cookie}

	return &http.Client{Transport: otelhttp.NewTransport(rt)}
}

type headerTransport struct {
	base   http.RoundTripper
	cookie string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)

	if t.cookie != "" && r.Header.Get("Cookie") == "" {
		r.Header.Set("Cookie", t.cookie)
	}

	return t.base.RoundTrip(r)
}
