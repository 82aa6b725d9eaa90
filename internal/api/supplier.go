package api

// Supplier is a purchasing counterparty.
type Supplier struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Gstin         string `json:"gstin,omitempty"`
	Address       string `json:"address,omitempty"`
	Country       *Ref   `json:"country,omitempty"`
	State         *Ref   `json:"state,omitempty"`
}
