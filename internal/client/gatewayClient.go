package client

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"commerce-core/internal/apperror"
	"commerce-core/internal/config"
	"commerce-core/internal/metrics"
	"commerce-core/internal/model"

	"github.com/sony/gobreaker/v2"
)

const (
	inquiryPath       = "/api/merchant/v2/inquiry"
	statusCodeSuccess = "00"
)

type GatewayClient interface {
	CreateInvoice(ctx context.Context, req *InvoiceRequest) (*InvoiceResult, error)
	VerifyCallback(cb *model.GatewayCallback) bool
}

type InvoiceRequest struct {
	MerchantOrderID string
	Amount          int64
	ProductDetails  string
	Customer        model.GatewayCustomer
	Items           []model.GatewayItemDetail
}

// InvoiceResult is the gateway response normalized for the checkout flow.
// RequestBody and RawBody are the exchanged bytes for the audit trail;
// Request and Raw are their decoded views.
type InvoiceResult struct {
	PaymentURL       string
	StatusCode       string
	GatewayReference string
	RequestBody      []byte
	RawBody          []byte
	Request          map[string]any
	Raw              map[string]any
}

type gatewayClientImpl struct {
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[[]byte]
	metrics      *metrics.Metrics
	baseApiURL   string
	merchantCode string
	secretKey    string
	callbackURL  string
	returnURL    string
	timeout      time.Duration
	expiryPeriod int
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gateway http %d: %s", e.status, e.body)
}

func NewGatewayClient(cfg *config.Gateway, m *metrics.Metrics) GatewayClient {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a rejected request says nothing about gateway health
		IsSuccessful: func(err error) bool {
			var statusErr *httpStatusError
			if errors.As(err, &statusErr) {
				return statusErr.status < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:      breaker,
		metrics:      m,
		baseApiURL:   cfg.BaseApiURL,
		merchantCode: cfg.MerchantCode,
		secretKey:    cfg.SecretKey,
		callbackURL:  cfg.CallbackURL,
		returnURL:    cfg.ReturnURL,
		timeout:      cfg.Timeout,
		expiryPeriod: cfg.ExpiryPeriod,
	}
}

// Sign computes the inquiry signature: md5(merchantCode + merchantOrderId + amount + secretKey).
func Sign(merchantCode, merchantOrderID string, amount int64, secretKey string) string {
	sum := md5.Sum([]byte(merchantCode + merchantOrderID + strconv.FormatInt(amount, 10) + secretKey))
	return hex.EncodeToString(sum[:])
}

// CallbackSignature computes md5(merchantCode + amount + merchantOrderId + secretKey).
func CallbackSignature(merchantCode, amount, merchantOrderID, secretKey string) string {
	sum := md5.Sum([]byte(merchantCode + amount + merchantOrderID + secretKey))
	return hex.EncodeToString(sum[:])
}

func (c *gatewayClientImpl) CreateInvoice(ctx context.Context, in *InvoiceRequest) (*InvoiceResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload := model.GatewayInquiryRequest{
		MerchantCode:    c.merchantCode,
		PaymentAmount:   in.Amount,
		MerchantOrderID: in.MerchantOrderID,
		ProductDetails:  in.ProductDetails,
		Email:           in.Customer.Email,
		PhoneNumber:     in.Customer.Phone,
		CustomerVaName:  in.Customer.Name,
		ItemDetails:     in.Items,
		CallbackURL:     c.callbackURL,
		ReturnURL:       c.returnURL,
		Signature:       Sign(c.merchantCode, in.MerchantOrderID, in.Amount, c.secretKey),
		ExpiryPeriod:    c.expiryPeriod,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	started := time.Now()
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, inquiryPath, body)
	})
	if c.metrics != nil {
		c.metrics.ObserveGateway("create_invoice", started, err)
	}
	if err != nil {
		return nil, toGatewayError(err)
	}

	var resp model.GatewayInquiryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &apperror.GatewayError{Message: "decode gateway response", Err: err}
	}

	if resp.StatusCode != statusCodeSuccess || resp.PaymentURL == "" {
		return nil, &apperror.GatewayError{
			StatusCode: resp.StatusCode,
			Message:    "invoice rejected: " + resp.StatusMessage,
		}
	}

	return &InvoiceResult{
		PaymentURL:       resp.PaymentURL,
		StatusCode:       resp.StatusCode,
		GatewayReference: resp.Reference,
		RequestBody:      body,
		RawBody:          raw,
		Request:          model.DecodeDocument(body),
		Raw:              model.DecodeDocument(raw),
	}, nil
}

func (c *gatewayClientImpl) VerifyCallback(cb *model.GatewayCallback) bool {
	expected := CallbackSignature(c.merchantCode, cb.Amount, cb.MerchantOrderID, c.secretKey)
	return cb.MerchantCode == c.merchantCode && cb.Signature == expected
}

func (c *gatewayClientImpl) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{status: resp.StatusCode, body: string(b)}
	}

	return b, nil
}

func toGatewayError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &apperror.GatewayError{Message: "gateway temporarily unavailable", Retryable: true, Err: err}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return &apperror.GatewayError{
			StatusCode: strconv.Itoa(statusErr.status),
			Message:    "create invoice",
			Retryable:  statusErr.status >= http.StatusInternalServerError,
			Err:        err,
		}
	}

	return &apperror.GatewayError{Message: "create invoice", Retryable: true, Err: err}
}
