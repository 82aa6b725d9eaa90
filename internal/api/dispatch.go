package api

// DispatchChallan records goods leaving for a customer.
type DispatchChallan struct {
	ID           int64  `json:"id"`
	Number       string `json:"challanNo"`
	Date         string `json:"challanDate"`
	Customer     *Ref   `json:"customer,omitempty"`
	SalesInvoice *Ref   `json:"salesInvoice,omitempty"`
	VehicleNo    string `json:"vehicleNo,omitempty"`
	Transporter  string `json:"transporter,omitempty"`
	Remarks      string `json:"remarks,omitempty"`
}
