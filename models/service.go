package models

type ServiceStatus string

// Forward-only: Pending -> In Progress -> Resolved, advanced by an admin.
const (
	ServicePending    ServiceStatus = "Pending"
	ServiceInProgress ServiceStatus = "In Progress"
	ServiceResolved   ServiceStatus = "Resolved"
)

// ServiceDevice is the denormalized device snapshot stored on a ticket, so
// the ticket stays readable after the device is edited or deleted.
type ServiceDevice struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
}

type ServiceRequest struct {
	ID             string        `json:"id"`
	Device         ServiceDevice `json:"device"`
	ReportedBy     string        `json:"reportedBy"`
	Description    string        `json:"description"`
	Status         ServiceStatus `json:"status"`
	ReportedAt     string        `json:"reportedAt"`
	RepairLocation string        `json:"repairLocation,omitempty"`
	RepairImageURL string        `json:"repairImageUrl,omitempty"`
}

// NextServiceStatus returns the next stage of a ticket, or "" when the ticket
// is already Resolved.
func NextServiceStatus(s ServiceStatus) ServiceStatus {
	switch s {
	case ServicePending:
		return ServiceInProgress
	case ServiceInProgress:
		return ServiceResolved
	}
	return ""
}
