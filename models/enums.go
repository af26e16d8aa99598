package models

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusOutForDelivery OrderStatus = "Out for delivery"
	StatusDelivered      OrderStatus = "delivered"

	// LegacyStatusInTransit was written by an older schema revision and means the
	// same thing as StatusOutForDelivery.
	LegacyStatusInTransit OrderStatus = "Intransit"
)

// OrderStatuses is the canonical status set in display order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusOutForDelivery, StatusDelivered}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOutForDelivery, StatusDelivered:
		return true
	}
	return false
}

func (s OrderStatus) String() string { return string(s) }

// ParseOrderStatus maps user or legacy input onto the canonical status set.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "pending":
		return StatusPending, true
	case "out for delivery", "intransit", "in transit":
		return StatusOutForDelivery, true
	case "delivered":
		return StatusDelivered, true
	}
	return "", false
}

type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

type Category string

const (
	CategoryNone    Category = ""
	CategoryIndoor  Category = "Indoor"
	CategoryOutdoor Category = "Outdoor"
)

func Categories() []Category {
	return []Category{CategoryIndoor, CategoryOutdoor}
}

// ParseCategory accepts "" as "no category".
func ParseCategory(raw string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return CategoryNone, true
	case "indoor":
		return CategoryIndoor, true
	case "outdoor":
		return CategoryOutdoor, true
	}
	return "", false
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCustomer:
		return RoleCustomer, true
	}
	return "", false
}
