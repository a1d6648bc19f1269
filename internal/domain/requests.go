package domain

// LoginRequest is the dashboard login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateBookingRequest is the add-booking form payload.
type CreateBookingRequest struct {
	Name    string `json:"name"`
	Service string `json:"service"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	AppDate string `json:"appDate"`
}

// UpdateBookingStatusRequest changes a booking's status.
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status"`
}

// InvoiceProductInput is one line item of a create-invoice request.
// Amount is ignored on input; it is recomputed server-side.
type InvoiceProductInput struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// CreateInvoiceRequest is the create-invoice payload. Totals are not
// accepted from the client.
type CreateInvoiceRequest struct {
	Type               InvoiceType           `json:"type"`
	ClientInfo         Customer              `json:"clientInfo"`
	Products           []InvoiceProductInput `json:"products"`
	TaxPercentage      float64               `json:"taxPercentage"`
	DiscountPercentage float64               `json:"discountPercentage"`
	Adjustment         float64               `json:"adjustment"`
	DueDate            string                `json:"dueDate"`
	Notes              string                `json:"notes"`
}

// SetCurrentWebsiteRequest switches the active tenant.
type SetCurrentWebsiteRequest struct {
	WebsiteID string `json:"website_id"`
}

// TenantData bundles the loaded website with the switcher list, as
// cached per upstream token.
type TenantData struct {
	Website  *Website     `json:"website"`
	Websites []WebsiteRef `json:"websites"`
}
