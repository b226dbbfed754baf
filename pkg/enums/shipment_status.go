package enums

import "fmt"

// ShipmentStatus tracks the delivery leg of an order.
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "PENDING"
	ShipmentStatusPacked    ShipmentStatus = "PACKED"
	ShipmentStatusShipped   ShipmentStatus = "SHIPPED"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
	ShipmentStatusCancelled ShipmentStatus = "CANCELLED"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusPacked,
	ShipmentStatusShipped,
	ShipmentStatusDelivered,
	ShipmentStatusCancelled,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
