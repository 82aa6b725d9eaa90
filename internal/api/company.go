package api

// Company is an organisation the user can work in.
type Company struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Gstin     string `json:"gstin,omitempty"`
	Address   string `json:"address,omitempty"`
	Country   *Ref   `json:"country,omitempty"`
	State     *Ref   `json:"state,omitempty"`
	Currency  *Ref   `json:"currency,omitempty"`
	BankName  string `json:"bankName,omitempty"`
	AccountNo string `json:"accountNo,omitempty"`
	IfscCode  string `json:"ifscCode,omitempty"`
}

// Role groups permissions.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// User is a console login.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      *Ref   `json:"role,omitempty"`
	Companies []Ref  `json:"companies,omitempty"`
	Active    bool   `json:"active"`
}

// Country lookup.
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// State lookup, always listed for one country.
type State struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	CountryID int64  `json:"countryId,omitempty"`
}
