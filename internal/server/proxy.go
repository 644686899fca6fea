package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Proxy forwards client requests to the upstream providers unchanged, except
// that the Alpha Vantage credential is injected server-side (the key never
// reaches the browser) and Yahoo paths are sanitized.
type Proxy struct {
	YahooBaseURL string
	AlphaBaseURL string
	AlphaAPIKey  string
	Client       *http.Client
	log          zerolog.Logger
}

// NewProxy creates the passthrough proxy with optional outbound proxy support.
func NewProxy(yahooBase, alphaBase, alphaKey, proxyURL string, log zerolog.Logger) *Proxy {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Proxy{
		YahooBaseURL: yahooBase,
		AlphaBaseURL: alphaBase,
		AlphaAPIKey:  alphaKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log,
	}
}

// RegisterRoutes mounts the proxy endpoints.
func (p *Proxy) RegisterRoutes(e *echo.Echo) {
	e.GET("/yapi/*", p.handleYahoo)
	e.GET("/avapi", p.handleAlpha)
}

func (p *Proxy) handleYahoo(c echo.Context) error {
	path := sanitizeUpstreamPath(c.Param("*"))
	upstream := p.YahooBaseURL + "/" + path
	if q := c.QueryString(); q != "" {
		upstream += "?" + q
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, upstream, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "bad upstream path"})
	}
	// Browser-like headers reduce the likelihood of being blocked by Yahoo.
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Referer", "https://finance.yahoo.com/")

	return p.forward(c, req)
}

func (p *Proxy) handleAlpha(c echo.Context) error {
	if p.AlphaAPIKey == "" {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "missing Alpha Vantage API key in environment"})
	}

	params := c.QueryParams()
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	// Credential injected here; any client-supplied value is overridden.
	q.Set("apikey", p.AlphaAPIKey)

	upstream := p.AlphaBaseURL + "/query?" + q.Encode()
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, upstream, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "bad upstream query"})
	}
	req.Header.Set("Accept", "application/json")

	return p.forward(c, req)
}

// forward relays the upstream status, content type and body verbatim.
func (p *Proxy) forward(c echo.Context, req *http.Request) error {
	resp, err := p.Client.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Str("url", req.URL.String()).Msg("proxy upstream error")
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "proxy upstream error"})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "proxy read error"})
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(resp.StatusCode, contentType, body)
}

// sanitizeUpstreamPath strips embedded absolute URLs from a client-supplied
// path. Copy-pasted full URLs occasionally land inside the proxy path (with
// the scheme's double slash often collapsed by path cleaning); only the part
// after the foreign host may be forwarded.
func sanitizeUpstreamPath(p string) string {
	p = strings.TrimLeft(p, "/")
	if i := strings.LastIndex(p, ":/"); i >= 0 {
		rest := strings.TrimLeft(p[i+2:], "/")
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			p = rest[j+1:]
		} else {
			p = ""
		}
	}
	return p
}
