package canebill

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/service/pricing"
	"github.com/mamadbah2/canebill/internal/service/reporting"
)

// APIError is a non-2xx reply from the bill service.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canebill api error: status=%d, code=%s, message=%s", e.Status, e.Code, e.Message)
}

// Client is a resty-backed client for the bill service HTTP API.
type Client struct {
	httpClient *resty.Client
}

// NewClient builds a client for baseURL. token may be empty until Login.
func NewClient(baseURL, token string) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/") + "/api").
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	if token != "" {
		restyClient.SetAuthToken(token)
	}
	return &Client{httpClient: restyClient}
}

// Session is the login reply.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// CreateBillRequest is the payload of a new bill. Date is 2006-01-02 or RFC3339.
type CreateBillRequest struct {
	BillNumber    string               `json:"billNumber"`
	OwnerName     string               `json:"ownerName"`
	QuotaNumber   string               `json:"quotaNumber,omitempty"`
	LicensePlate  string               `json:"licensePlate,omitempty"`
	Date          string               `json:"date"`
	SugarcaneType models.SugarcaneType `json:"sugarcaneType"`
	Weight        float64              `json:"weight"`
	FuelCost      float64              `json:"fuelCost"`
	ManualPrice   *float64             `json:"manualPrice,omitempty"`
}

// BillQuery narrows bill listings and stats. Empty fields are omitted.
type BillQuery struct {
	Owner string
	From  string
	To    string
}

func (q BillQuery) params() map[string]string {
	out := map[string]string{}
	if q.Owner != "" {
		out["owner"] = q.Owner
	}
	if q.From != "" {
		out["from"] = q.From
	}
	if q.To != "" {
		out["to"] = q.To
	}
	return out
}

// Login exchanges credentials for a token and uses it on later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	session := new(Session)
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil, session)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.httpClient.SetAuthToken(session.Token)
	return session, nil
}

// ListBills returns bills matching q, newest first.
func (c *Client) ListBills(ctx context.Context, q BillQuery) ([]models.Bill, error) {
	var bills []models.Bill
	if err := c.do(ctx, http.MethodGet, "/bills", nil, q.params(), &bills); err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// CreateBill records a bill and returns it with the frozen price and totals.
func (c *Client) CreateBill(ctx context.Context, req CreateBillRequest) (*models.Bill, error) {
	bill := new(models.Bill)
	if err := c.do(ctx, http.MethodPost, "/bills", req, nil, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	return bill, nil
}

// PriceCheck resolves the price entry in force on date. An empty date means today.
func (c *Client) PriceCheck(ctx context.Context, date string) (*pricing.Resolution, error) {
	params := map[string]string{}
	if date != "" {
		params["date"] = date
	}
	res := new(pricing.Resolution)
	if err := c.do(ctx, http.MethodGet, "/price-check", nil, params, res); err != nil {
		return nil, fmt.Errorf("price check: %w", err)
	}
	return res, nil
}

// Stats returns dashboard aggregates for q.
func (c *Client) Stats(ctx context.Context, q BillQuery) (*reporting.Stats, error) {
	stats := new(reporting.Stats)
	if err := c.do(ctx, http.MethodGet, "/stats", nil, q.params(), stats); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, query map[string]string, result any) error {
	apiErr := new(APIError)
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return apiErr
	}
	return nil
}
