package vendure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AuthTokenHeader carries the backend session token. The shop API returns it
// on the first response of a session; subsequent requests replay it as a
// bearer token so the backend can associate the active order.
const AuthTokenHeader = "vendure-auth-token"

// Client represents a shop API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new shop API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do executes one GraphQL request. It returns the session token echoed by the
// backend (empty if none) so callers can persist it for the next request.
func (c *Client) do(ctx context.Context, token, query string, variables map[string]interface{}, out interface{}) (string, error) {
	reqBody, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %d, body: %s", ErrBadStatus, resp.StatusCode, string(body))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Errors) > 0 {
		return "", fmt.Errorf("%w: %s", ErrGraphQL, envelope.Errors[0].Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	return resp.Header.Get(AuthTokenHeader), nil
}

// orderResult decodes the Order | ErrorResult union of cart mutations
type orderResult struct {
	Order
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func (r *orderResult) resolve() (*Order, error) {
	if r.ErrorCode != "" {
		return nil, &APIError{ErrorCode: r.ErrorCode, Message: r.Message}
	}
	o := r.Order
	return &o, nil
}

// ActiveOrder fetches the session's in-progress order. A nil order with a nil
// error means no order is active.
func (c *Client) ActiveOrder(ctx context.Context, token string) (*Order, string, error) {
	var data struct {
		ActiveOrder *Order `json:"activeOrder"`
	}
	newToken, err := c.do(ctx, token, getActiveOrderQuery, nil, &data)
	if err != nil {
		return nil, "", err
	}
	return data.ActiveOrder, newToken, nil
}

// AddItemToOrder adds a variant to the active order, creating one if needed
func (c *Client) AddItemToOrder(ctx context.Context, token, variantID string, quantity int) (*Order, string, error) {
	var data struct {
		AddItemToOrder orderResult `json:"addItemToOrder"`
	}
	newToken, err := c.do(ctx, token, addItemToOrderMutation, map[string]interface{}{
		"productVariantId": variantID,
		"quantity":         quantity,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	order, err := data.AddItemToOrder.resolve()
	return order, newToken, err
}

// RemoveOrderLine removes a line from the active order
func (c *Client) RemoveOrderLine(ctx context.Context, token, lineID string) (*Order, string, error) {
	var data struct {
		RemoveOrderLine orderResult `json:"removeOrderLine"`
	}
	newToken, err := c.do(ctx, token, removeOrderLineMutation, map[string]interface{}{
		"orderLineId": lineID,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	order, err := data.RemoveOrderLine.resolve()
	return order, newToken, err
}

// AdjustOrderLine sets the quantity of a line in the active order
func (c *Client) AdjustOrderLine(ctx context.Context, token, lineID string, quantity int) (*Order, string, error) {
	var data struct {
		AdjustOrderLine orderResult `json:"adjustOrderLine"`
	}
	newToken, err := c.do(ctx, token, adjustOrderLineMutation, map[string]interface{}{
		"orderLineId": lineID,
		"quantity":    quantity,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	order, err := data.AdjustOrderLine.resolve()
	return order, newToken, err
}

// Products lists catalog products
func (c *Client) Products(ctx context.Context, token string, options ProductListOptions) (*ProductList, string, error) {
	var data struct {
		Products ProductList `json:"products"`
	}
	newToken, err := c.do(ctx, token, getProductsQuery, map[string]interface{}{
		"options": options,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	return &data.Products, newToken, nil
}

// ProductBySlug fetches a single product by slug (nil if not found)
func (c *Client) ProductBySlug(ctx context.Context, token, slug string) (*Product, string, error) {
	var data struct {
		Product *Product `json:"product"`
	}
	newToken, err := c.do(ctx, token, getProductBySlugQuery, map[string]interface{}{
		"slug": slug,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	return data.Product, newToken, nil
}

// ProductByID fetches a single product by id (nil if not found)
func (c *Client) ProductByID(ctx context.Context, token, id string) (*Product, string, error) {
	var data struct {
		Product *Product `json:"product"`
	}
	newToken, err := c.do(ctx, token, getProductByIDQuery, map[string]interface{}{
		"id": id,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	return data.Product, newToken, nil
}

// Collections lists the catalog collections
func (c *Client) Collections(ctx context.Context, token string) ([]Collection, string, error) {
	var data struct {
		Collections struct {
			Items []Collection `json:"items"`
		} `json:"collections"`
	}
	newToken, err := c.do(ctx, token, getCollectionsQuery, nil, &data)
	if err != nil {
		return nil, "", err
	}
	return data.Collections.Items, newToken, nil
}

// Search runs the catalog search
func (c *Client) Search(ctx context.Context, token string, input SearchInput) (*SearchResult, string, error) {
	var data struct {
		Search SearchResult `json:"search"`
	}
	newToken, err := c.do(ctx, token, searchProductsQuery, map[string]interface{}{
		"input": input,
	}, &data)
	if err != nil {
		return nil, "", err
	}
	return &data.Search, newToken, nil
}
