package portal

import (
	"bytes"
	"encoding/json"
	"net/url"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
)

// unescape percent-decodes s. Values that fail to decode are kept
// verbatim: the upstream occasionally emits raw '%' characters and the
// dashboard must render something rather than fail.
func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// unescapeOr percent-decodes s, substituting fallback when s is empty.
func unescapeOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return unescape(s)
}

// flexString decodes a JSON string or number into a string. Upstream
// ids arrive as either, depending on the PHP serializer's mood.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type clientPayload struct {
	FullName       string `json:"fullName"`
	PrimaryEmail   string `json:"primaryEmail"`
	SecondaryEmail string `json:"secondaryEmail"`
	HomePhone      string `json:"homePhone"`
	MobilePhone    string `json:"mobilePhone"`
	WorkPhone      string `json:"workPhone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	Zip            string `json:"zip"`
	OtherInfo      string `json:"otherInfo"`
	Type           string `json:"type"`
}

// parseClients reshapes the upstream `clients` object (keyed by client
// id) into an ordered slice, preserving the document order of the keys.
// A malformed entry degrades to placeholder values instead of failing
// the whole load.
func parseClients(raw json.RawMessage) ([]domain.Customer, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		// Not an object; treat as no clients.
		return nil, nil
	}

	var customers []domain.Customer
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var entry json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}

		var c clientPayload
		_ = json.Unmarshal(entry, &c) // malformed entry → zero values → placeholders

		customers = append(customers, domain.Customer{
			ID:             key,
			FullName:       unescapeOr(c.FullName, "No Name"),
			PrimaryEmail:   unescapeOr(c.PrimaryEmail, "no-email@example.com"),
			SecondaryEmail: unescape(c.SecondaryEmail),
			HomePhone:      unescape(c.HomePhone),
			MobilePhone:    unescape(c.MobilePhone),
			WorkPhone:      unescape(c.WorkPhone),
			Address:        unescape(c.Address),
			City:           unescape(c.City),
			State:          unescape(c.State),
			Country:        unescape(c.Country),
			Zip:            unescape(c.Zip),
			OtherInfo:      unescape(c.OtherInfo),
			Type:           unescape(c.Type),
		})
	}
	return customers, nil
}

type websiteRefPayload struct {
	ID     flexString `json:"id"`
	Name   string     `json:"name"`
	Domain string     `json:"domain"`
}

type websitePayload struct {
	WebsiteID   flexString          `json:"website_id"`
	WebsiteName string              `json:"name"`
	Domain      string              `json:"domain"`
	Clients     json.RawMessage     `json:"clients"`
	Websites    []websiteRefPayload `json:"websites"`
}

// buildWebsite maps the raw upstream payload to the domain model,
// filling defensive defaults for anything missing.
func buildWebsite(p *websitePayload) (*domain.Website, []domain.WebsiteRef, error) {
	customers, err := parseClients(p.Clients)
	if err != nil {
		return nil, nil, err
	}

	site := &domain.Website{
		ID:        string(p.WebsiteID),
		Name:      unescapeOr(p.WebsiteName, "Default Website"),
		Domain:    unescape(p.Domain),
		Customers: customers,
	}
	if site.ID == "" {
		site.ID = "default"
	}

	// The switcher list is passed through as received, not decoded.
	refs := make([]domain.WebsiteRef, 0, len(p.Websites))
	for _, w := range p.Websites {
		refs = append(refs, domain.WebsiteRef{
			ID:     string(w.ID),
			Name:   w.Name,
			Domain: w.Domain,
		})
	}
	return site, refs, nil
}
