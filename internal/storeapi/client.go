// Package storeapi is the typed client for the authoritative
// storefront API: cart mutation, predictive search suggestions, and
// product recommendations.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/curetcore/velox-storefront/internal/domain"
	"github.com/curetcore/velox-storefront/pkg/httpclient"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client calls the storefront API.
type Client struct {
	http    HTTPDoer
	baseURL string
}

// NewClient creates a storefront API client for the given base URL.
func NewClient(doer HTTPDoer, baseURL string) *Client {
	return &Client{http: doer, baseURL: baseURL}
}

type changeRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ChangeLine sets the quantity of one cart line (0 removes it) and
// returns the full authoritative cart snapshot. The server may merge
// lines or round prices; callers must replace their cached state
// wholesale from the returned snapshot.
func (c *Client) ChangeLine(ctx context.Context, lineKey string, quantity int) (*domain.CartSnapshot, error) {
	body, err := json.Marshal(changeRequest{ID: lineKey, Quantity: quantity})
	if err != nil {
		return nil, fmt.Errorf("marshal change request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cart/change.js", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create change request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call cart endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "cart")
	}

	var snapshot domain.CartSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if snapshot.Lines == nil {
		snapshot.Lines = []domain.CartLine{}
	}

	return &snapshot, nil
}

type suggestResponse struct {
	Resources struct {
		Results struct {
			Products []domain.SearchResult `json:"products"`
		} `json:"results"`
	} `json:"resources"`
}

// Suggest runs a predictive product search for the query, returning
// at most limit matches.
func (c *Client) Suggest(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("resources[type]", "product")
	q.Set("resources[limit]", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/suggest.json?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create suggest request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call suggest endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "search")
	}

	var sr suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode suggest response: %w", err)
	}

	return sr.Resources.Results.Products, nil
}

type recommendationsResponse struct {
	Products []domain.Recommendation `json:"products"`
}

// Recommendations fetches up to limit recommendations seeded by the
// given product.
func (c *Client) Recommendations(ctx context.Context, productID string, limit int) ([]domain.Recommendation, error) {
	q := url.Values{}
	q.Set("product_id", productID)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recommendations/products.json?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create recommendations request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call recommendations endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "recommendations")
	}

	var rr recommendationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode recommendations response: %w", err)
	}

	return rr.Products, nil
}
