package models

// Product is a device model template; devices are instances of it.
type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	ImageURL           string   `json:"imageUrl"`
	Description        string   `json:"description,omitempty"`
	DesignatedFor      UserRole `json:"designatedFor,omitempty"`
	DefaultAccessories []string `json:"defaultAccessories,omitempty"`
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

// ProductApprovalRequest is a teacher-submitted request for new stock of a
// product model. Approval is record keeping only; devices are provisioned
// manually afterwards.
type ProductApprovalRequest struct {
	ID              string         `json:"id"`
	ProductID       string         `json:"productId"`
	ProductName     string         `json:"productName"`
	Category        string         `json:"category"`
	ImageURL        string         `json:"imageUrl"`
	Quantity        int            `json:"quantity"`
	RequestedBy     string         `json:"requestedBy"`
	RequestedByRole UserRole       `json:"requestedByRole"`
	RequestedDate   string         `json:"requestedDate"`
	Status          ApprovalStatus `json:"status"`
	ApprovedBy      string         `json:"approvedBy,omitempty"`
	ApprovalDate    string         `json:"approvalDate,omitempty"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
}
