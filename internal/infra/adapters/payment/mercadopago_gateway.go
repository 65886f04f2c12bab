package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fitplan/internal/domain"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway reads payments from the Mercado Pago REST API (GET /v1/payments/{id}).
type MercadoPagoGateway struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewMercadoPagoGateway(accessToken, baseURL string, timeout time.Duration) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, errors.New("mercadopago access token empty")
	}
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid mercadopago base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

type mpPayment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
	CurrencyID        string      `json:"currency_id"`
	DateApproved      *time.Time  `json:"date_approved"`
}

// Lookup returns domain.ErrNotFound when the provider does not know the payment.
func (g *MercadoPagoGateway) Lookup(ctx context.Context, paymentID string) (adapter.ProviderPayment, bool, error) {
	start := time.Now()
	p, err := g.lookup(ctx, paymentID)
	result := "found"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	metrics.ObservePaymentLookup(g.Name(), result, time.Since(start).Seconds())
	if err != nil {
		return adapter.ProviderPayment{}, false, err
	}
	return p, true, nil
}

func (g *MercadoPagoGateway) lookup(ctx context.Context, paymentID string) (adapter.ProviderPayment, error) {
	if _, err := strconv.ParseInt(paymentID, 10, 64); err != nil {
		return adapter.ProviderPayment{}, domain.ErrInvalidArgument
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return adapter.ProviderPayment{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.ProviderPayment{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return adapter.ProviderPayment{}, domain.ErrNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return adapter.ProviderPayment{}, fmt.Errorf("mercadopago http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out mpPayment
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return adapter.ProviderPayment{}, fmt.Errorf("decode mercadopago payment: %w", err)
	}
	return adapter.ProviderPayment{
		ID:                out.ID.String(),
		Status:            out.Status,
		ExternalReference: out.ExternalReference,
		Amount:            out.TransactionAmount,
		Currency:          out.CurrencyID,
		ApprovedAt:        out.DateApproved,
	}, nil
}
