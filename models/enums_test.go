package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	cases := map[string]OrderStatus{
		"pending":          StatusPending,
		" Pending ":        StatusPending,
		"Out for delivery": StatusOutForDelivery,
		"out_for_delivery": StatusOutForDelivery,
		"Intransit":        StatusOutForDelivery,
		"in transit":       StatusOutForDelivery,
		"DELIVERED":        StatusDelivered,
	}
	for raw, want := range cases {
		got, ok := ParseOrderStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseOrderStatus("shipped")
	assert.False(t, ok)
}

func TestLegacyStatusIsNotCanonical(t *testing.T) {
	assert.False(t, LegacyStatusInTransit.Valid())
	for _, s := range OrderStatuses() {
		assert.True(t, s.Valid())
	}
}

func TestOrderBeforeSaveRejectsUnknownStatus(t *testing.T) {
	o := &Order{Status: "lost"}
	err := o.BeforeSave(nil)
	assert.EqualError(t, err, `invalid order status "lost"`)

	o.Status = StatusDelivered
	assert.NoError(t, o.BeforeSave(nil))
}

func TestParseCategoryAndRole(t *testing.T) {
	c, ok := ParseCategory("outdoor")
	assert.True(t, ok)
	assert.Equal(t, CategoryOutdoor, c)

	c, ok = ParseCategory("")
	assert.True(t, ok)
	assert.Equal(t, CategoryNone, c)

	_, ok = ParseCategory("garden")
	assert.False(t, ok)

	r, ok := ParseRole("Admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)
	_, ok = ParseRole("staff")
	assert.False(t, ok)
}

func TestCustomerEmailHelpers(t *testing.T) {
	var c Customer
	c.SetEmail("")
	assert.Nil(t, c.Email)
	assert.Equal(t, "", c.EmailAddress())

	c.SetEmail("john@x.com")
	assert.Equal(t, "john@x.com", c.EmailAddress())
}
