package coinbase

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"nija-backend/internal/domain"

	"github.com/google/uuid"
)

const BaseURL = "https://api.coinbase.com"

// Client talks to the Coinbase Advanced Trade API.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// APIError captures structured error info returned by Coinbase.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "coinbase API error"
	}
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("coinbase API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("coinbase API error %d: %s", e.StatusCode, e.Body)
}

func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Err     string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Err != "" || parsed.Message != "") {
		return &APIError{StatusCode: statusCode, Code: parsed.Err, Message: parsed.Message, Body: string(body)}
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    BaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// PlaceOrder submits a market IOC order sized in quote currency.
func (c *Client) PlaceOrder(req *domain.OrderRequest) (*domain.BrokerOrder, error) {
	payload := map[string]any{
		"client_order_id": uuid.NewString(),
		"product_id":      req.Symbol,
		"side":            req.Side,
		"order_configuration": map[string]any{
			"market_market_ioc": map[string]string{
				"quote_size": fmt.Sprintf("%.2f", req.SizeUSD),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.signedRequest(http.MethodPost, "/api/v3/brokerage/orders", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var parsed struct {
		Success     bool `json:"success"`
		SuccessResp struct {
			OrderID   string `json:"order_id"`
			ProductID string `json:"product_id"`
		} `json:"success_response"`
		ErrorResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"error_response"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, err
	}

	if !parsed.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       parsed.ErrorResp.Error,
			Message:    parsed.ErrorResp.Message,
			Body:       string(respBody),
		}
	}

	return &domain.BrokerOrder{
		OrderID: parsed.SuccessResp.OrderID,
		Symbol:  parsed.SuccessResp.ProductID,
		Status:  "OPEN",
	}, nil
}

// GetAccounts lists the brokerage currency accounts.
func (c *Client) GetAccounts() ([]domain.BrokerAccount, error) {
	resp, err := c.signedRequest(http.MethodGet, "/api/v3/brokerage/accounts", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var parsed struct {
		Accounts []struct {
			UUID             string `json:"uuid"`
			Currency         string `json:"currency"`
			AvailableBalance struct {
				Value string `json:"value"`
			} `json:"available_balance"`
			Hold struct {
				Value string `json:"value"`
			} `json:"hold"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	accounts := make([]domain.BrokerAccount, 0, len(parsed.Accounts))
	for _, a := range parsed.Accounts {
		available, _ := strconv.ParseFloat(a.AvailableBalance.Value, 64)
		hold, _ := strconv.ParseFloat(a.Hold.Value, 64)
		accounts = append(accounts, domain.BrokerAccount{
			ID:        a.UUID,
			Currency:  a.Currency,
			Available: available,
			Hold:      hold,
		})
	}
	return accounts, nil
}

// GetSpotPrice returns the current price of a product from the public market
// data endpoint. No authentication required.
func (c *Client) GetSpotPrice(productID string) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/brokerage/market/products/%s", c.baseURL, productID)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return 0, parseAPIError(resp.StatusCode, body)
	}

	var parsed struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(parsed.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q for %s", parsed.Price, productID)
	}
	return price, nil
}

// signedRequest signs with the legacy CB-ACCESS scheme:
// HMAC-SHA256(timestamp + method + path + body) hex-encoded.
func (c *Client) signedRequest(method, path string, body []byte) (*http.Response, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("CB-ACCESS-KEY", c.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// compile-time check
var _ domain.Broker = (*Client)(nil)
