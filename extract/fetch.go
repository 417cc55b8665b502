package extract

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sourcegraph/conc/iter"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/metrics"
	"github.com/PavanSai0211/Finance-Reporting-Project/transform"
)

const (
	FormatCSV = "csv"
	FormatZip = "zip"
)

// MarketDataClient downloads the raw per-symbol datasets from a static file host.
type MarketDataClient struct {
	HTTPClient *retryablehttp.Client
	Logger     *slog.Logger
	BaseURL    string
	Format     string
	token      string
}

func NewMarketDataClient(config *config.Config, logger *slog.Logger) (*MarketDataClient, error) {
	if config.Extract.BaseURL == "" {
		return nil, fmt.Errorf("extract.base_url is not set")
	}
	if _, err := url.Parse(config.Extract.BaseURL); err != nil {
		return nil, fmt.Errorf("failed to parse extract.base_url: %w", err)
	}

	format := config.Extract.Format
	if format == "" {
		format = FormatCSV
	}

	client := &MarketDataClient{
		HTTPClient: retryablehttp.NewClient(),
		Logger:     logger,
		BaseURL:    strings.TrimRight(config.Extract.BaseURL, "/"),
		Format:     format,
		token:      os.Getenv("MARKET_DATA_TOKEN"),
	}

	client.HTTPClient.RetryWaitMin = config.Extract.Backoff.RetryWaitMin
	client.HTTPClient.RetryWaitMax = config.Extract.Backoff.RetryWaitMax
	client.HTTPClient.RetryMax = config.Extract.Backoff.RetryMax
	client.HTTPClient.Logger = logger

	return client, nil
}

// GetDataset fetches one dataset of a symbol, e.g. {base_url}/AAPL/dividends.csv
func (c *MarketDataClient) GetDataset(symbol, kind string) ([]byte, error) {
	rawURL := fmt.Sprintf("%s/%s/%s.csv", c.BaseURL, strings.ToUpper(symbol), kind)
	return c.FetchData(rawURL, fmt.Sprintf("%s for symbol %s", kind, symbol))
}

// GetBundle fetches {base_url}/{SYMBOL}.zip and returns its CSV entries keyed by dataset kind.
func (c *MarketDataClient) GetBundle(symbol string) (map[string][]byte, error) {
	rawURL := fmt.Sprintf("%s/%s.zip", c.BaseURL, strings.ToUpper(symbol))
	body, err := c.FetchData(rawURL, fmt.Sprintf("bundle for symbol %s", symbol))
	if err != nil {
		return nil, err
	}
	return UnzipCSVs(body)
}

// DownloadSymbol fetches all datasets of a symbol, concurrently when they are separate files.
func (c *MarketDataClient) DownloadSymbol(symbol string) (map[string][]byte, error) {
	if c.Format == FormatZip {
		datasets, err := c.GetBundle(symbol)
		if err != nil {
			return nil, err
		}
		for _, kind := range constants.DatasetKinds {
			if _, ok := datasets[kind]; !ok {
				return nil, fmt.Errorf("bundle for symbol %s has no %s.csv", symbol, kind)
			}
		}
		return datasets, nil
	}

	mapper := iter.Mapper[string, []byte]{
		MaxGoroutines: len(constants.DatasetKinds),
	}

	bodies, err := mapper.MapErr(constants.DatasetKinds, func(kind *string) ([]byte, error) {
		body, err := c.GetDataset(symbol, *kind)
		if err != nil {
			return nil, fmt.Errorf("error fetching %s for symbol %s: %w", *kind, symbol, err)
		}
		metrics.DownloadedBytes.WithLabelValues(*kind).Add(float64(len(body)))
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	datasets := make(map[string][]byte, len(bodies))
	for i, kind := range constants.DatasetKinds {
		datasets[kind] = bodies[i]
	}
	return datasets, nil
}

// SaveDatasets writes the downloaded datasets to dir as {SYMBOL}_{kind}.csv.
func SaveDatasets(dir, symbol string, datasets map[string][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create datasets directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(datasets))
	for _, kind := range constants.DatasetKinds {
		body, ok := datasets[kind]
		if !ok {
			continue
		}
		path := filepath.Join(dir, transform.RawFileName(symbol, kind))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FetchData handles the common logic of making the HTTP request and checking the response status
func (c *MarketDataClient) FetchData(url, description string) ([]byte, error) {
	body, resp, err := c.get(url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch the `%s` file, status: %s, body: %s", description, resp.Status, string(body))
	}

	if len(bytes.TrimSpace(body)) == 0 || string(body) == "None" {
		return nil, fmt.Errorf("received empty body for the `%s` file", description)
	}

	return body, nil
}

// get fetches the URL and returns the body and response
func (c *MarketDataClient) get(url string) (body []byte, resp *http.Response, err error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err = c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return body, resp, nil
}
