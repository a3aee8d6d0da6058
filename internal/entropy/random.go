// Package entropy supplies seeds for fresh world generation, drawing from
// random.org when an API key is configured and falling back to crypto/rand.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client fetches true random integers from random.org.
type Client struct {
	apiKey string
	client *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is empty;
// a nil Client still works and uses crypto/rand.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Seed returns a world generation seed. Asks random.org first when
// configured; any failure falls through to a local crypto/rand seed.
func (c *Client) Seed() int64 {
	if c == nil {
		return cryptoSeed()
	}
	if s, ok := c.fetch(); ok {
		return s
	}
	return cryptoSeed()
}

func (c *Client) fetch() (int64, bool) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      2,
			"min":    0,
			"max":    1 << 30,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return 0, false
	}

	resp, err := c.client.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return 0, false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return 0, false
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return 0, false
	}
	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return 0, false
	}
	if len(result.Result.Random.Data) < 2 {
		return 0, false
	}

	// Two 30-bit draws combined into a 60-bit seed.
	seed := result.Result.Random.Data[0]<<30 | result.Result.Random.Data[1]
	slog.Debug("random.org seed fetched", "seed", seed)
	return seed, true
}

// cryptoSeed generates a seed from crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Should never happen; fall back to the clock.
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
