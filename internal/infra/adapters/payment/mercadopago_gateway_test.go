//go:build !integration

package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitplan/internal/domain"
)

func TestMercadoPagoGateway_Lookup(t *testing.T) {
	t.Run("should decode an approved payment", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/payments/123456" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer TEST-token" {
				t.Errorf("unexpected auth header %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":123456,"status":"approved","external_reference":"user-1:premium","transaction_amount":49.9,"currency_id":"BRL","date_approved":"2025-01-02T10:00:00.000-03:00"}`))
		}))
		defer srv.Close()

		g, err := NewMercadoPagoGateway("TEST-token", srv.URL, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		p, ok, err := g.Lookup(context.Background(), "123456")
		if err != nil || !ok {
			t.Fatalf("expected payment, got ok=%v err=%v", ok, err)
		}
		if p.ID != "123456" || p.Status != "approved" || p.ExternalReference != "user-1:premium" || p.Currency != "BRL" {
			t.Errorf("unexpected payment %+v", p)
		}
		if p.ApprovedAt == nil {
			t.Error("approval date not decoded")
		}
	})

	t.Run("should map 404 to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		g, _ := NewMercadoPagoGateway("t", srv.URL, time.Second)
		if _, _, err := g.Lookup(context.Background(), "1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should surface server errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		g, _ := NewMercadoPagoGateway("t", srv.URL, time.Second)
		_, ok, err := g.Lookup(context.Background(), "1")
		if err == nil || ok {
			t.Fatalf("expected error, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("should reject non numeric ids without calling the api", func(t *testing.T) {
		g, _ := NewMercadoPagoGateway("t", "http://127.0.0.1:1", time.Second)
		if _, _, err := g.Lookup(context.Background(), "abc"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should require a token", func(t *testing.T) {
		if _, err := NewMercadoPagoGateway("", "", 0); err == nil {
			t.Fatal("expected error")
		}
	})
}
