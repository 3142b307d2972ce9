// Package cmr provides a client for NASA's Common Metadata Repository (CMR) API.
package cmr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the default CMR API base URL.
	DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

	// DefaultProvider is the CMR provider hosting ICESat-2 products.
	DefaultProvider = "NSIDC_CPRD"

	// DefaultPageSize is the default number of results per page.
	DefaultPageSize = 250

	// MaxPageSize is the maximum page size supported by CMR.
	MaxPageSize = 2000

	// CMRSearchAfterHeader is the header used for cursor-based pagination.
	CMRSearchAfterHeader = "CMR-Search-After"

	userAgent = "atl08-extract/1.0"
)

// ErrNoDataURL is returned by Download when a granule has no GET DATA link.
var ErrNoDataURL = errors.New("granule has no data URL")

// Client handles communication with the CMR API.
type Client struct {
	baseURL    string
	provider   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new CMR API client.
func NewClient(baseURL, provider string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if provider == "" {
		provider = DefaultProvider
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		provider: provider,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// WithToken sets an Earthdata Login bearer token sent on searches and downloads.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// SearchResult contains the results of a CMR search.
type SearchResult struct {
	Granules    []UMMGranule
	Hits        int
	SearchAfter string // Cursor for next page
	TookMs      int
}

// Search performs a granule search against CMR.
func (c *Client) Search(ctx context.Context, params *SearchParams) (*SearchResult, error) {
	searchURL := c.baseURL + "/granules.umm_json"
	queryParams := c.query(params)

	c.logger.DebugContext(ctx, "executing CMR search",
		slog.String("url", searchURL),
		slog.String("params", queryParams.Encode()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+queryParams.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.nasa.cmr.umm_results+json")
	c.setHeaders(req)
	if params.SearchAfter != "" {
		req.Header.Set(CMRSearchAfterHeader, params.SearchAfter)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "CMR API request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("CMR API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.ErrorContext(ctx, "CMR API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return nil, fmt.Errorf("CMR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var cmrResp UMMSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&cmrResp); err != nil {
		return nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}

	granules := make([]UMMGranule, 0, len(cmrResp.Items))
	for _, item := range cmrResp.Items {
		granules = append(granules, item.UMM)
	}

	searchAfter := resp.Header.Get(CMRSearchAfterHeader)

	c.logger.DebugContext(ctx, "CMR search completed",
		slog.Int("hits", cmrResp.Hits),
		slog.Int("returned", len(granules)),
		slog.Bool("has_next", searchAfter != ""),
	)

	return &SearchResult{
		Granules:    granules,
		Hits:        cmrResp.Hits,
		SearchAfter: searchAfter,
		TookMs:      cmrResp.Took,
	}, nil
}

// SearchAll follows CMR-Search-After cursors until every hit has been read
// or limit granules have been collected. A limit of zero means no limit.
func (c *Client) SearchAll(ctx context.Context, params *SearchParams, limit int) (*SearchResult, error) {
	p := *params
	if limit > 0 && (p.PageSize == 0 || p.PageSize > limit) {
		p.PageSize = min(limit, MaxPageSize)
	}

	all := &SearchResult{}
	for {
		page, err := c.Search(ctx, &p)
		if err != nil {
			return nil, err
		}
		all.Hits = page.Hits
		all.TookMs += page.TookMs
		all.Granules = append(all.Granules, page.Granules...)

		if limit > 0 && len(all.Granules) >= limit {
			all.Granules = all.Granules[:limit]
			break
		}
		if page.SearchAfter == "" || len(page.Granules) == 0 || len(all.Granules) >= page.Hits {
			break
		}
		p.SearchAfter = page.SearchAfter
	}

	c.logger.InfoContext(ctx, "CMR search finished",
		slog.Int("hits", all.Hits),
		slog.Int("granules", len(all.Granules)),
	)
	return all, nil
}

// Download fetches the granule's data file into dir and returns its path.
// An existing file of the same name is left untouched and reported as skipped.
func (c *Client) Download(ctx context.Context, granule *UMMGranule, dir string) (string, bool, error) {
	dataURL := granule.GetDataURL()
	if dataURL == "" {
		return "", false, fmt.Errorf("%s: %w", granule.GranuleUR, ErrNoDataURL)
	}

	name, err := downloadName(dataURL, granule.GranuleUR)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", granule.GranuleUR, err)
	}
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		c.logger.InfoContext(ctx, "granule already downloaded", slog.String("path", dest))
		return dest, true, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dataURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("download of %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("download of %s returned status %d", name, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return "", false, fmt.Errorf("download of %s failed: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", false, fmt.Errorf("failed to move download into place: %w", err)
	}

	c.logger.InfoContext(ctx, "granule downloaded",
		slog.String("path", dest),
		slog.Int64("bytes", n),
		slog.Duration("elapsed", time.Since(start)),
	)
	return dest, false, nil
}

// GranulesURL returns the CMR query URL for the first page of params.
func (c *Client) GranulesURL(params *SearchParams) string {
	return c.baseURL + "/granules.umm_json?" + c.query(params).Encode()
}

func (c *Client) query(params *SearchParams) url.Values {
	values := params.ToURLValues()
	values.Set("provider", c.provider)
	return values
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// downloadName is the last path element of the data URL, falling back to
// the base name of the granule UR. Names that would leave the download
// directory are rejected.
func downloadName(dataURL, granuleUR string) (string, error) {
	if u, err := url.Parse(dataURL); err == nil {
		if base := path.Base(u.Path); safeName(base) {
			return base, nil
		}
	}
	if base := path.Base(strings.ReplaceAll(granuleUR, `\`, "/")); safeName(base) {
		return base, nil
	}
	return "", fmt.Errorf("%w: no usable file name in %q", ErrNoDataURL, dataURL)
}

func safeName(name string) bool {
	return name != "" && name != "." && name != ".." && name != "/" && !strings.ContainsAny(name, `/\`)
}

// SearchParams represents parameters for CMR granule searches.
type SearchParams struct {
	// Collection identification
	ShortName string
	Version   string
	ConceptID []string

	// Granule identification
	GranuleUR []string

	BoundingBox string // west,south,east,north
	Temporal    string // start,end in ISO 8601 format

	PageSize    int
	SearchAfter string // CMR-Search-After cursor

	SortKey string // e.g. "-start_date" for descending
}

// ToURLValues converts SearchParams to URL query parameters.
func (p *SearchParams) ToURLValues() url.Values {
	values := url.Values{}

	if p.ShortName != "" {
		values.Set("short_name", p.ShortName)
	}
	if p.Version != "" {
		values.Set("version", p.Version)
	}
	for _, cid := range p.ConceptID {
		values.Add("concept_id", cid)
	}
	for _, gur := range p.GranuleUR {
		values.Add("granule_ur", gur)
	}

	if p.BoundingBox != "" {
		values.Set("bounding_box", p.BoundingBox)
	}
	if p.Temporal != "" {
		values.Set("temporal", p.Temporal)
	}

	if p.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(p.PageSize))
	} else {
		values.Set("page_size", strconv.Itoa(DefaultPageSize))
	}

	if p.SortKey != "" {
		values.Set("sort_key", p.SortKey)
	} else {
		values.Set("sort_key", "start_date")
	}

	return values
}
