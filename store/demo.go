package store

import (
	"time"

	"deviceloan/models"
)

// NewDemoGateway builds the memory store pre-seeded with the offline dataset:
// one product, devices in several lifecycle states, a small directory, and a
// returned loan in the history.
func NewDemoGateway() *MemoryGateway {
	g := NewMemoryGateway()

	iso := func(t time.Time) string { return t.UTC().Format(time.RFC3339) }

	_ = g.Seed(Products, models.Product{
		ID:                 "PROD-001",
		Name:               `iPad Pro 11"`,
		Category:           "iPad",
		ImageURL:           "https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?q=80&w=800",
		Description:        "Powerful iPad for Pros",
		DesignatedFor:      models.RoleTeacher,
		DefaultAccessories: []string{"Case", "Stylus"},
	})

	_ = g.Seed(Devices,
		models.Device{ID: "ipad-001", SerialNumber: "SKP-IP-001", ProductID: "PROD-001", Status: models.StatusAvailable},
		models.Device{
			ID: "ipad-002", SerialNumber: "SKP-IP-002", ProductID: "PROD-001",
			Status:     models.StatusBorrowed,
			BorrowedBy: "สมชาย ใจดี",
			BorrowDate: iso(time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)),
			DueDate:    iso(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)),
			AppleID:    "somchai.j@icloud.com",
		},
		models.Device{
			ID: "ipad-003", SerialNumber: "SKP-IP-003", ProductID: "PROD-001",
			Status:     models.StatusPendingApproval,
			BorrowedBy: "คุณครูมานะ เรียนเก่ง",
		},
		models.Device{
			ID: "cam-001", SerialNumber: "SKP-CM-001",
			Name: "Sony A7 IV", Category: "Others",
			ImageURL: "https://images.unsplash.com/photo-1512790182412-b19e6d62bc39?q=80&w=800",
			Status:   models.StatusMaintenance,
		},
	)

	_ = g.Seed(Users,
		models.LoginUser{ID: "U001", Email: "somsri.s@spk.ac.th", Role: models.RoleTeacher},
		models.LoginUser{ID: "U002", Email: "mana.r@spk.ac.th", Role: models.RoleTeacher},
		models.LoginUser{ID: "U003", Email: "somchai.j@spk.ac.th", Role: models.RoleStudent},
		models.LoginUser{ID: "U004", Email: "somying.j@spk.ac.th", Role: models.RoleStudent},
	)

	_ = g.Seed(Teachers,
		models.TeacherUser{
			ID: "T001", Username: "คุณครูสมศรี สอนดี", Email: "somsri.s@spk.ac.th",
			Role: models.RoleTeacher, ProfileImageURL: "https://i.pravatar.cc/150?u=teacher1",
			Department: "Science",
		},
		models.TeacherUser{
			ID: "T002", Username: "คุณครูมานะ เรียนเก่ง", Email: "mana.r@spk.ac.th",
			Role: models.RoleTeacher, ProfileImageURL: "https://i.pravatar.cc/150?u=teacher2",
			Department: "Math",
		},
	)

	_ = g.Seed(StudentsM4,
		models.StudentUser{
			ID: "S001", Username: "สมชาย ใจดี", Email: "somchai.j@spk.ac.th",
			Role: models.RoleStudent, ProfileImageURL: "https://i.pravatar.cc/150?u=student1",
			StudentID: "66001", Grade: 6, Classroom: "1",
		},
		models.StudentUser{
			ID: "S002", Username: "สมหญิง จริงใจ", Email: "somying.j@spk.ac.th",
			Role: models.RoleStudent, ProfileImageURL: "https://i.pravatar.cc/150?u=student2",
			StudentID: "65034", Grade: 5, Classroom: "3",
		},
	)

	_ = g.Seed(History, models.HistoryEntry{
		HistoryID:           "bh1",
		DeviceID:            "ipad-001",
		BorrowerName:        "สมชาย ใจดี",
		BorrowDate:          iso(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)),
		ReturnDate:          iso(time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)),
		Status:              models.HistoryReturned,
		AppleID:             "somchai.j@icloud.com",
		BorrowNotes:         "First time borrower",
		ReturnNotes:         "Returned in good condition",
		BorrowedAccessories: "Case, Stylus Pen",
	})

	_ = g.Seed(Service)
	_ = g.Seed(ActivityLogs)
	_ = g.Seed(ProductApprovals)
	return g
}
