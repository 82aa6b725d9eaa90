package api

// StockTransfer moves stock between companies or locations.
type StockTransfer struct {
	ID          int64  `json:"id"`
	Number      string `json:"transferNo"`
	Date        string `json:"transferDate"`
	FromCompany *Ref   `json:"fromCompany,omitempty"`
	ToCompany   *Ref   `json:"toCompany,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
}
