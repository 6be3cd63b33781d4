package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nija-backend/internal/domain"
)

const BaseURL = "https://api.kraken.com"

// Client talks to the Kraken REST API. It is the secondary broker; the order
// surface matches Coinbase's so the gate can swap between them.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// APIError wraps the error strings Kraken returns in its response envelope.
type APIError struct {
	StatusCode int
	Errors     []string
}

func (e *APIError) Error() string {
	if e == nil {
		return "kraken API error"
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("kraken API error %d: %s", e.StatusCode, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("kraken API error %d", e.StatusCode)
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    BaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// PlaceOrder submits a market order. The viqc flag keeps sizing in quote
// currency, matching how the gate expresses order size.
func (c *Client) PlaceOrder(req *domain.OrderRequest) (*domain.BrokerOrder, error) {
	params := url.Values{}
	params.Set("pair", req.Symbol)
	params.Set("type", strings.ToLower(req.Side))
	params.Set("ordertype", "market")
	params.Set("volume", fmt.Sprintf("%.2f", req.SizeUSD))
	params.Set("oflags", "viqc")

	var result struct {
		Txid []string `json:"txid"`
	}
	if err := c.privateRequest("/0/private/AddOrder", params, &result); err != nil {
		return nil, err
	}

	orderID := ""
	if len(result.Txid) > 0 {
		orderID = result.Txid[0]
	}

	return &domain.BrokerOrder{
		OrderID: orderID,
		Symbol:  req.Symbol,
		Status:  "OPEN",
	}, nil
}

// GetAccounts maps Kraken's balance response onto one account per currency.
func (c *Client) GetAccounts() ([]domain.BrokerAccount, error) {
	var result map[string]string
	if err := c.privateRequest("/0/private/Balance", url.Values{}, &result); err != nil {
		return nil, err
	}

	accounts := make([]domain.BrokerAccount, 0, len(result))
	for currency, amount := range result {
		available, _ := strconv.ParseFloat(amount, 64)
		accounts = append(accounts, domain.BrokerAccount{
			ID:        currency,
			Currency:  currency,
			Available: available,
		})
	}
	return accounts, nil
}

// privateRequest signs with Kraken's scheme: API-Sign is
// base64(HMAC-SHA512(path + SHA256(nonce + postdata), base64-decoded secret)).
func (c *Client) privateRequest(path string, params url.Values, out any) error {
	nonce := strconv.FormatInt(time.Now().UnixNano(), 10)
	params.Set("nonce", nonce)
	postData := params.Encode()

	secret, err := base64.StdEncoding.DecodeString(c.apiSecret)
	if err != nil {
		return fmt.Errorf("invalid kraken API secret: %w", err)
	}

	inner := sha256.Sum256([]byte(nonce + postData))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(inner[:])
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(postData))
	if err != nil {
		return err
	}
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("API-Sign", signature)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Error  []string        `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("kraken API error %d: %s", resp.StatusCode, string(body))
	}
	if len(envelope.Error) > 0 {
		return &APIError{StatusCode: resp.StatusCode, Errors: envelope.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}

	if out != nil && len(envelope.Result) > 0 {
		return json.Unmarshal(envelope.Result, out)
	}
	return nil
}

// compile-time check
var _ domain.Broker = (*Client)(nil)
