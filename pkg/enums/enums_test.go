package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("PENDING_PAYMENT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusPendingPayment {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseOrderStatus("pending_payment"); err == nil {
		t.Fatal("expected lowercase input to be rejected")
	}
	if _, err := ParseOrderStatus("SHIPPED"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestPaymentStatusIsValid(t *testing.T) {
	for _, status := range validPaymentStatuses {
		if !status.IsValid() {
			t.Fatalf("%q should be valid", status)
		}
	}
	if PaymentStatus("VOIDED").IsValid() {
		t.Fatal("VOIDED should not be valid")
	}
}

func TestParseShipmentStatus(t *testing.T) {
	status, err := ParseShipmentStatus("DELIVERED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != ShipmentStatusDelivered {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseShipmentStatus(""); err == nil {
		t.Fatal("expected empty input to be rejected")
	}
}

func TestParsePaymentProvider(t *testing.T) {
	provider, err := ParsePaymentProvider("PAYPAL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != PaymentProviderPayPal {
		t.Fatalf("unexpected provider %q", provider)
	}
}

func TestCartStatusString(t *testing.T) {
	if got := CartStatusConverted.String(); got != "CONVERTED" {
		t.Fatalf("unexpected string %q", got)
	}
}
