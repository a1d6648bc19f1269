// Package domain holds the core types of the dashboard gateway.
package domain

import "time"

// Customer is one entry of a website's client list. Only id, fullName
// and primaryEmail are guaranteed; the rest is whatever the upstream
// record carries.
type Customer struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	PrimaryEmail   string `json:"primaryEmail"`
	SecondaryEmail string `json:"secondaryEmail,omitempty"`
	HomePhone      string `json:"homePhone,omitempty"`
	MobilePhone    string `json:"mobilePhone,omitempty"`
	WorkPhone      string `json:"workPhone,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Country        string `json:"country,omitempty"`
	Zip            string `json:"zip,omitempty"`
	OtherInfo      string `json:"otherInfo,omitempty"`
	Type           string `json:"type,omitempty"` // "client" or "private"
}

// Website is the active tenant: the site the dashboard operates on,
// together with its customer list in upstream document order.
type Website struct {
	ID        string     `json:"websiteId"`
	Name      string     `json:"websiteName"`
	Domain    string     `json:"domain"`
	Customers []Customer `json:"customers"`
}

// WebsiteRef is one entry of the tenant switcher list. It is carried
// through from the upstream response as-is, under the upstream's own
// keys.
type WebsiteRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

// BookingStatus enumerates the lifecycle of a booking.
type BookingStatus string

const (
	BookingPending  BookingStatus = "Pending"
	BookingCancel   BookingStatus = "Cancel"
	BookingApproved BookingStatus = "Approved"
	BookingInvoice  BookingStatus = "Invoice"
	BookingPaid     BookingStatus = "Paid"
)

// ValidBookingStatus reports whether s is a known status value.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingCancel, BookingApproved, BookingInvoice, BookingPaid:
		return true
	}
	return false
}

// Booking is an appointment request made through the dashboard.
type Booking struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Service     string        `json:"service"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	AppDate     string        `json:"appDate"`
	CreatedDate time.Time     `json:"createdDate"`
	Status      BookingStatus `json:"status"`
}

// Product is a line item on an order.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is a placed order with its line items.
type Order struct {
	ID          string    `json:"id"`
	ClientInfo  Customer  `json:"clientInfo"`
	Products    []Product `json:"products"`
	Total       float64   `json:"total"`
	CreatedDate time.Time `json:"createdDate"`
	Status      string    `json:"status"`
}

// InvoiceType distinguishes invoices from quotes.
type InvoiceType string

const (
	InvoiceTypeInvoice InvoiceType = "invoice"
	InvoiceTypeQuote   InvoiceType = "quote"
)

// InvoiceProduct is a line item on an invoice. Amount is Price*Quantity,
// computed server-side.
type InvoiceProduct struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

// Invoice is a billing document. All monetary totals are derived from
// the line items and percentages, never taken from the client.
type Invoice struct {
	ID                 string           `json:"id"`
	Number             int              `json:"number"`
	Type               InvoiceType      `json:"type"`
	ClientInfo         Customer         `json:"clientInfo"`
	Products           []InvoiceProduct `json:"products"`
	Subtotal           float64          `json:"subtotal"`
	TaxPercentage      float64          `json:"taxPercentage"`
	Tax                float64          `json:"tax"`
	DiscountPercentage float64          `json:"discountPercentage"`
	Discount           float64          `json:"discount"`
	Adjustment         float64          `json:"adjustment"`
	Total              float64          `json:"total"`
	Balance            float64          `json:"balance"`
	DueDate            string           `json:"dueDate"`
	CreatedDate        time.Time        `json:"createdDate"`
	Notes              string           `json:"notes,omitempty"`
}

// SessionMetrics is the payload of the GET /v1/metrics/session endpoint.
type SessionMetrics struct {
	TotalLogins       int64   `json:"total_logins"`
	FailedLogins      int64   `json:"failed_logins"`
	TenantLoads       int64   `json:"tenant_loads"`
	FailedTenantLoads int64   `json:"failed_tenant_loads"`
	UpstreamErrors    int64   `json:"upstream_errors"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	Period            string  `json:"period"`
}
