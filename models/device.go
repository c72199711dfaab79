package models

type DeviceStatus string

// Wire values match the sheet columns; "Pending Approval" keeps its space.
const (
	StatusAvailable       DeviceStatus = "Available"
	StatusBorrowed        DeviceStatus = "Borrowed"
	StatusMaintenance     DeviceStatus = "Maintenance"
	StatusPendingApproval DeviceStatus = "Pending Approval"
	StatusLost            DeviceStatus = "Lost"
)

// Device is a physical lendable asset. Dates are ISO 8601 strings because the
// sheet stores them as text and blanks them out with the NotSpecified
// placeholder on clear.
//
// BorrowedBy holds the borrower's display name, not a user id. Lookups join on
// this name field; fragile, but every existing sheet row depends on it.
type Device struct {
	ID           string       `json:"id"`
	SerialNumber string       `json:"serialNumber"`
	ProductID    string       `json:"productId"`
	Status       DeviceStatus `json:"status"`

	// Loan fields, meaningful only while Borrowed or Pending Approval.
	BorrowedBy          string `json:"borrowedBy,omitempty"`
	BorrowDate          string `json:"borrowDate,omitempty"`
	DueDate             string `json:"dueDate,omitempty"`
	AppleID             string `json:"appleId,omitempty"`
	BorrowNotes         string `json:"borrowNotes,omitempty"`
	BorrowedAccessories string `json:"borrowedAccessories,omitempty"`

	// Hydrated from the owning Product at read time; never persisted back.
	Name          string   `json:"name,omitempty"`
	Category      string   `json:"category,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	DesignatedFor UserRole `json:"designatedFor,omitempty"`
	Accessories   []string `json:"accessories,omitempty"`
}

// StripDerived drops the product-hydrated display fields so they cannot leak
// into the Devices sheet.
func (d Device) StripDerived() Device {
	d.Name = ""
	d.Category = ""
	d.ImageURL = ""
	d.DesignatedFor = ""
	d.Accessories = nil
	return d
}

// Hydrate copies display data from the owning product. Legacy standalone
// devices (no product) keep whatever display fields they carry themselves.
func (d Device) Hydrate(p *Product) Device {
	if p == nil {
		return d
	}
	d.Name = p.Name
	d.Category = p.Category
	d.ImageURL = p.ImageURL
	d.DesignatedFor = p.DesignatedFor
	d.Accessories = p.DefaultAccessories
	return d
}
