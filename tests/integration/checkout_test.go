//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func addToCart(t *testing.T, device, productID, variant string, qty int) {
	t.Helper()

	body := map[string]any{"productId": productID, "quantity": qty}
	if variant != "" {
		body["variant"] = variant
	}
	resp := doJSON(t, http.MethodPost, "/api/cart/items", device, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/checkout/start", "it-checkout-empty", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_SubmitWithoutStart(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/checkout/submit", "it-checkout-nostart", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCheckout_PlaceAndLookupOrder(t *testing.T) {
	const device = "it-checkout-happy"
	addToCart(t, device, "hoodie-fern", "large", 1)
	addToCart(t, device, "beanie-rib", "", 2)

	resp := doJSON(t, http.MethodPost, "/api/checkout/start", device, nil)
	view := decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()
	if view.Phase != "awaiting_contact" {
		t.Fatalf("phase after start: got %q, want awaiting_contact", view.Phase)
	}
	if !view.Reconciliation.Clean {
		t.Fatalf("expected clean reconciliation, conflicts: %+v", view.Reconciliation.Conflicts)
	}

	resp = doJSON(t, http.MethodPost, "/api/checkout/contact", device, map[string]any{
		"email":      "shopper@example.com",
		"name":       "Shopper",
		"address":    "1 Main St",
		"city":       "Springfield",
		"postalCode": "12345",
	})
	view = decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()
	if view.Contact == nil || view.Contact.Email != "shopper@example.com" {
		t.Fatalf("contact not stored: %+v", view.Contact)
	}

	resp = doJSON(t, http.MethodPost, "/api/checkout/submit", device, nil)
	view = decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()
	if view.Phase != "confirmed" {
		t.Fatalf("phase after submit: got %q, want confirmed (error: %s)", view.Phase, view.Error)
	}
	if view.Order == nil {
		t.Fatal("no order in confirmed view")
	}
	// 68.00 + 2*18.00
	if view.Order.Subtotal != 104.0 {
		t.Errorf("subtotal: got %v, want 104.0", view.Order.Subtotal)
	}

	// The cart is cleared once the order is confirmed.
	cartResp := doGet(t, "/api/cart", device)
	state := decodeJSON[cartResponse](t, cartResp)
	cartResp.Body.Close()
	if len(state.Items) != 0 {
		t.Errorf("cart not cleared after confirm: %d lines", len(state.Items))
	}

	// Lookup requires the matching contact email.
	resp = doGet(t, "/api/order/"+view.Order.ID+"?email=shopper@example.com", "")
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("lookup: expected 200, got %d", resp.StatusCode)
	}
	found := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()
	if found.ID != view.Order.ID {
		t.Errorf("lookup id: got %q, want %q", found.ID, view.Order.ID)
	}

	resp = doGet(t, "/api/order/"+view.Order.ID+"?email=other@example.com", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("lookup with wrong email: expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckout_Abandon(t *testing.T) {
	const device = "it-checkout-abandon"
	addToCart(t, device, "socks-trail", "medium", 1)

	resp := doJSON(t, http.MethodPost, "/api/checkout/start", device, nil)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, "/api/checkout/abandon", device, nil)
	view := decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()
	if view.Phase != "idle" {
		t.Fatalf("phase after abandon: got %q, want idle", view.Phase)
	}

	// Abandoning the checkout keeps the cart.
	cartResp := doGet(t, "/api/cart", device)
	defer cartResp.Body.Close()
	state := decodeJSON[cartResponse](t, cartResp)
	if len(state.Items) != 1 {
		t.Errorf("cart lost on abandon: %d lines", len(state.Items))
	}
}

func TestCheckout_SessionTokenPrefillsContact(t *testing.T) {
	const device = "it-checkout-prefill"
	addToCart(t, device, "beanie-rib", "", 1)

	resp := doJSON(t, http.MethodPost, "/api/checkout/start", device, nil,
		"Authorization", "Bearer "+sessionToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	view := decodeJSON[checkoutResponse](t, resp)
	if view.Contact == nil {
		t.Fatal("expected prefilled contact")
	}
	if view.Contact.Email != "demo@example.com" {
		t.Errorf("prefill email: got %q, want demo@example.com", view.Contact.Email)
	}
}
