// Package plaidclient is the seam between the application and the Plaid SDK.
// Each Adapter method issues exactly one Plaid call and hands the answer back untouched.
package plaidclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/plaid/plaid-go/v20/plaid"
)

// Adapter exposes the Plaid operations the application uses.
//
// A returned error means no usable answer was received (network failure, timeout,
// undecodable body). Answers where Plaid rejected the request come back as a
// Response whose IsSuccess is false.
type Adapter interface {
	CreateLinkToken(ctx context.Context, req plaid.LinkTokenCreateRequest) (Response[plaid.LinkTokenCreateResponse], error)
	ExchangePublicToken(ctx context.Context, req plaid.ItemPublicTokenExchangeRequest) (Response[plaid.ItemPublicTokenExchangeResponse], error)
	GetAccounts(ctx context.Context, req plaid.AccountsGetRequest) (Response[plaid.AccountsGetResponse], error)
	GetTransactions(ctx context.Context, req plaid.TransactionsGetRequest) (Response[plaid.TransactionsGetResponse], error)
	RemoveItem(ctx context.Context, req plaid.ItemRemoveRequest) (Response[plaid.ItemRemoveResponse], error)
}

// Config holds the Plaid credentials and environment.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // "sandbox", "production" or a base URL
}

// NewAPIClient builds an SDK client authenticated with the configured credentials.
func NewAPIClient(cfg Config) *plaid.APIClient {
	plaidConfig := plaid.NewConfiguration()
	plaidConfig.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	plaidConfig.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	plaidConfig.UseEnvironment(Environment(cfg.Environment))
	return plaid.NewAPIClient(plaidConfig)
}

// Environment resolves an environment name to the Plaid base URL.
// Anything that is not a known name is used as the URL itself.
func Environment(name string) plaid.Environment {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sandbox":
		return plaid.Sandbox
	case "production":
		return plaid.Production
	default:
		return plaid.Environment(name)
	}
}

// Client implements Adapter on top of the Plaid SDK.
type Client struct {
	api *plaid.APIClient
}

// NewClient wraps an SDK client.
func NewClient(api *plaid.APIClient) *Client {
	return &Client{api: api}
}

func (c *Client) CreateLinkToken(ctx context.Context, req plaid.LinkTokenCreateRequest) (Response[plaid.LinkTokenCreateResponse], error) {
	resp, httpResp, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(req).Execute()
	return respond(resp, httpResp, err)
}

func (c *Client) ExchangePublicToken(ctx context.Context, req plaid.ItemPublicTokenExchangeRequest) (Response[plaid.ItemPublicTokenExchangeResponse], error) {
	resp, httpResp, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(req).Execute()
	return respond(resp, httpResp, err)
}

func (c *Client) GetAccounts(ctx context.Context, req plaid.AccountsGetRequest) (Response[plaid.AccountsGetResponse], error) {
	resp, httpResp, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(req).Execute()
	return respond(resp, httpResp, err)
}

func (c *Client) GetTransactions(ctx context.Context, req plaid.TransactionsGetRequest) (Response[plaid.TransactionsGetResponse], error) {
	resp, httpResp, err := c.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(req).Execute()
	return respond(resp, httpResp, err)
}

func (c *Client) RemoveItem(ctx context.Context, req plaid.ItemRemoveRequest) (Response[plaid.ItemRemoveResponse], error) {
	resp, httpResp, err := c.api.PlaidApi.ItemRemove(ctx).ItemRemoveRequest(req).Execute()
	return respond(resp, httpResp, err)
}

// respond sorts an SDK result into a Response or a transport error.
// The SDK reports non-2xx answers as errors too; those become Failure values.
func respond[T any](body T, httpResp *http.Response, err error) (Response[T], error) {
	if err == nil {
		status := http.StatusOK
		if httpResp != nil {
			status = httpResp.StatusCode
		}
		return Success(status, body), nil
	}
	if httpResp == nil || httpResp.StatusCode < 300 {
		return Response[T]{}, err
	}

	plaidErr, decodeErr := plaid.ToPlaidError(err)
	if decodeErr != nil {
		return Failure[T](httpResp.StatusCode, ErrorPayload{}), nil
	}
	return Failure[T](httpResp.StatusCode, ErrorPayload{
		Type:           string(plaidErr.GetErrorType()),
		Code:           plaidErr.GetErrorCode(),
		Message:        plaidErr.GetErrorMessage(),
		DisplayMessage: plaidErr.GetDisplayMessage(),
		RequestID:      plaidErr.GetRequestId(),
	}), nil
}

var _ Adapter = (*Client)(nil)
