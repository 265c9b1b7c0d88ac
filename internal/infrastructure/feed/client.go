// Package feed implements the supplier feed transport: manifest acquisition,
// product document fetch, category file fetch and binary downloads.
package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
	"github.com/catalogsync/backend/internal/infrastructure/retry"
)

// maxImageSize bounds binary downloads so a runaway response cannot exhaust
// memory (20 MiB is far above any product image in the feed).
const maxImageSize = 20 << 20

// ManifestEntry is one product line of the supplier manifest
type ManifestEntry struct {
	DocumentURL  string
	ContentHash  string
	SupplierCode string
	ProductCode  string
}

// Manifest is the parsed supplier manifest: the reserved categories file URL
// from the first line, then product entries in file order.
type Manifest struct {
	CategoriesURL string
	Entries       []ManifestEntry
}

// CategoryRecord is one row of the semicolon-delimited categories file. The
// name column is either a plain value or comma-separated "lang=value" pairs;
// pairs are parsed into Names and Name is left empty.
type CategoryRecord struct {
	Code       string
	Name       string
	Names      map[string]string
	ParentCode string
}

// Client fetches manifests, documents, category files and binaries over
// plain HTTP with explicit timeouts, throttling and retry.
type Client struct {
	httpClient  *http.Client
	manifestURL string
	limiter     *rate.Limiter
	retry       *retry.Policy
	logger      *zap.Logger
}

// Option is a functional option for configuring the Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests)
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRateLimit throttles outbound requests to n per second
func WithRateLimit(perSecond float64) Option {
	return func(cl *Client) {
		if perSecond > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a feed client. timeout bounds every outbound request.
func NewClient(manifestURL string, timeout time.Duration, retryPolicy *retry.Policy, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		manifestURL: manifestURL,
		retry:       retryPolicy,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = retry.DefaultPolicy(c.logger)
	}
	return c
}

// FetchManifest downloads and parses the manifest. When supplierCode is
// non-empty, product lines whose URL path does not carry that code are
// filtered out. Entry order is file order; it doubles as the stable
// processing order for reproducible logs.
func (c *Client) FetchManifest(ctx context.Context, supplierCode string) (*Manifest, error) {
	body, _, err := c.get(ctx, c.manifestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrManifestUnavailable, err)
	}
	manifest, err := parseManifest(string(body), supplierCode)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Manifest fetched",
		zap.String("supplier_code", supplierCode),
		zap.Int("entries", len(manifest.Entries)),
	)
	return manifest, nil
}

// parseManifest scans the LF-delimited manifest. The first line is reserved
// for the categories file URL and is never treated as a product line.
func parseManifest(raw, supplierCode string) (*Manifest, error) {
	lines := strings.Split(raw, "\n")
	manifest := &Manifest{}
	supplierCode = strings.ToUpper(supplierCode)

	sawHeader := false
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !sawHeader {
			// First line is reserved for the categories file URL
			sawHeader = true
			manifest.CategoriesURL = strings.SplitN(line, "|", 2)[0]
			continue
		}

		docURL, hash, found := strings.Cut(line, "|")
		if !found {
			return nil, syncdomain.NewParseError("manifest", fmt.Errorf("line %d: missing hash separator", i+1))
		}
		entry := ManifestEntry{
			DocumentURL: docURL,
			ContentHash: hash,
		}
		entry.SupplierCode, entry.ProductCode = splitDocumentURL(docURL)
		if entry.SupplierCode == "" {
			// Non-product entry (e.g. a category file mixed into the list)
			continue
		}
		if supplierCode != "" && entry.SupplierCode != supplierCode {
			continue
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	return manifest, nil
}

// splitDocumentURL derives the supplier code and product code from a product
// document URL of the form https://host/<supplier>/<supplier>-<number>.json.
func splitDocumentURL(docURL string) (supplierCode, productCode string) {
	u, err := url.Parse(docURL)
	if err != nil {
		return "", ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", ""
	}
	file := segments[len(segments)-1]
	if !strings.HasSuffix(strings.ToLower(file), ".json") {
		return "", ""
	}
	supplierCode = strings.ToUpper(segments[len(segments)-2])
	productCode = strings.TrimSuffix(file, ".json")
	return supplierCode, productCode
}

// DiscoverSuppliers returns the distinct supplier codes present in the
// entries, sorted for stable output.
func DiscoverSuppliers(entries []ManifestEntry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.SupplierCode != "" {
			seen[e.SupplierCode] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// FetchDocument downloads and parses one product document
func (c *Client) FetchDocument(ctx context.Context, docURL string) (*Document, error) {
	body, _, err := c.get(ctx, docURL)
	if err != nil {
		return nil, err
	}
	return ParseDocument(body, docURL)
}

// FetchCategories downloads and parses the semicolon-delimited categories
// file (code;name;parentCode, header row skipped).
func (c *Client) FetchCategories(ctx context.Context, fileURL string) ([]CategoryRecord, error) {
	body, _, err := c.get(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	var records []CategoryRecord
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syncdomain.NewParseError(fileURL, err)
		}
		if first {
			first = false
			continue
		}
		if len(row) < 2 {
			continue
		}
		rec := CategoryRecord{
			Code: strings.TrimSpace(row[0]),
		}
		rec.Name, rec.Names = parseCategoryName(row[1])
		if len(row) > 2 {
			rec.ParentCode = strings.TrimSpace(row[2])
		}
		if rec.Code == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseCategoryName splits a name column that carries per-language values as
// comma-separated "lang=value" pairs. A plain value is returned as-is; it is
// the caller's job to assign it a language.
func parseCategoryName(column string) (string, map[string]string) {
	column = strings.TrimSpace(column)
	if !strings.Contains(column, "=") {
		return column, nil
	}
	names := make(map[string]string)
	for _, pair := range strings.Split(column, ",") {
		lang, value, found := strings.Cut(pair, "=")
		lang = strings.ToLower(strings.TrimSpace(lang))
		value = strings.TrimSpace(value)
		if !found || lang == "" || value == "" {
			continue
		}
		names[lang] = value
	}
	if len(names) == 0 {
		return column, nil
	}
	return "", names
}

// DownloadBinary fetches an image and returns its bytes and content type
func (c *Client) DownloadBinary(ctx context.Context, binURL string) ([]byte, string, error) {
	return c.get(ctx, binURL)
}

// get performs one throttled, retried GET. Non-2xx responses and transport
// failures surface as TransportError after the retry budget is exhausted.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var body []byte
	var contentType string

	err := c.retry.Do(ctx, "http get", func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return syncdomain.NewParseError(rawURL, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return syncdomain.NewTransportError(rawURL, 0, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return syncdomain.NewTransportError(rawURL, resp.StatusCode, nil)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
		if err != nil {
			return syncdomain.NewTransportError(rawURL, 0, err)
		}
		body = data
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}
