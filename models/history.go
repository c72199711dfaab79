package models

// HistoryEntry records a completed loan. Created exactly once per return,
// never mutated or deleted afterwards.
type HistoryEntry struct {
	HistoryID           string `json:"historyId"`
	DeviceID            string `json:"deviceId"`
	UserID              string `json:"userId,omitempty"`
	BorrowerName        string `json:"borrowerName"`
	BorrowDate          string `json:"borrowDate"`
	ReturnDate          string `json:"returnDate,omitempty"`
	Status              string `json:"status"`
	AppleID             string `json:"appleId,omitempty"`
	BorrowNotes         string `json:"borrowNotes,omitempty"`
	ReturnNotes         string `json:"returnNotes,omitempty"`
	BorrowedAccessories string `json:"borrowedAccessories,omitempty"`
}

const HistoryReturned = "Returned"
