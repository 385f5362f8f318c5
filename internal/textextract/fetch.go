package textextract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxFetchBytes caps remote downloads so a misbehaving URL cannot exhaust
// memory.
const maxFetchBytes = 32 << 20

var fetchClient = &http.Client{Timeout: 60 * time.Second}

// Fetch downloads a remote document and returns its bytes.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, fmt.Errorf("fetch %s: document exceeds %d bytes", url, maxFetchBytes)
	}
	return data, nil
}
