package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cheggaaa/pb/v3"
	"github.com/jpillora/backoff"
)

// catalogPage is one page of the portal's mod listing.
type catalogPage struct {
	Pagination struct {
		Links struct {
			Next string `json:"next"`
		} `json:"links"`
	} `json:"pagination"`
	Results []modSummary `json:"results"`
}

type modSummary struct {
	Name          string       `json:"name"`
	Title         string       `json:"title"`
	LatestRelease *modRelease  `json:"latest_release"`
	Releases      []modRelease `json:"releases"`
}

type modRelease struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
}

// release picks the release to ingest: latest_release when the catalog
// provides one, otherwise the maximum of the releases list by version.
func (m *modSummary) release() *modRelease {
	if m.LatestRelease != nil {
		return m.LatestRelease
	}
	var best *modRelease
	for i := range m.Releases {
		candidate := &m.Releases[i]
		if best == nil || compareVersions(candidate.Version, best.Version) > 0 {
			best = candidate
		}
	}
	return best
}

// compareVersions orders release versions semantically, falling back to
// plain string comparison when either side does not parse as semver, so a
// malformed catalog version never aborts the run.
func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return va.Compare(vb)
}

const fetchAttempts = 3

// portalClient performs the portal's HTTP traffic: paginated catalog reads
// and authenticated archive downloads, both with bounded retry.
type portalClient struct {
	http *http.Client
}

func newPortalClient(timeout time.Duration) *portalClient {
	return &portalClient{http: &http.Client{Timeout: timeout}}
}

func (c *portalClient) newBackoff() *backoff.Backoff {
	return &backoff.Backoff{Min: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: true}
}

// page fetches and decodes one catalog page.
func (c *portalClient) page(ctx context.Context, pageURL string) (*catalogPage, error) {
	var page catalogPage
	err := c.withRetry(ctx, func() error {
		resp, err := c.get(ctx, pageURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&page)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog page %s: %w", pageURL, err)
	}
	return &page, nil
}

// download streams an authenticated release download into dst, reporting
// progress. Authentication is username/token query parameters.
func (c *portalClient) download(ctx context.Context, downloadURL string, creds *Credentials, dst *os.File) error {
	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return fmt.Errorf("invalid download url %s: %w", downloadURL, err)
	}
	query := parsed.Query()
	query.Set("username", creds.Username)
	query.Set("token", creds.Token)
	parsed.RawQuery = query.Encode()

	return c.withRetry(ctx, func() error {
		// a failed attempt may have written partial bytes
		if err := dst.Truncate(0); err != nil {
			return err
		}
		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return err
		}
		resp, err := c.get(ctx, parsed.String())
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		size := resp.ContentLength
		if size < 0 {
			size = 0
		}
		bar := pb.Full.Start64(size)
		defer bar.Finish()
		_, err = io.Copy(dst, bar.NewProxyReader(resp.Body))
		return err
	})
}

func (c *portalClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}

func (c *portalClient) withRetry(ctx context.Context, op func() error) error {
	retry := c.newBackoff()
	var err error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == fetchAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.Duration()):
		}
	}
	return err
}
