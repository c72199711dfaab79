package state

import (
	"context"
	"sort"
	"sync"

	"deviceloan/models"
	"deviceloan/store"
)

// AppState owns every in-memory projection. It is a cache of the remote
// store: mutations land here only after the gateway confirms the write.
type AppState struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex // per-device, see LockDevice

	devices          []models.Device
	products         []models.Product
	logins           []models.LoginUser
	teachers         []models.TeacherUser
	students         []models.StudentUser
	history          []models.HistoryEntry
	serviceRequests  []models.ServiceRequest
	activityLogs     []models.ActivityLog
	productApprovals []models.ProductApprovalRequest
}

func New() *AppState {
	return &AppState{locks: map[string]*sync.Mutex{}}
}

// LoadInitial reads every collection through the gateway and hydrates devices
// from their products. The three grade sheets concatenate into one student
// directory.
func (s *AppState) LoadInitial(ctx context.Context, gw store.Gateway) error {
	var (
		devices   []models.Device
		products  []models.Product
		logins    []models.LoginUser
		teachers  []models.TeacherUser
		history   []models.HistoryEntry
		service   []models.ServiceRequest
		logs      []models.ActivityLog
		approvals []models.ProductApprovalRequest
		students  []models.StudentUser
	)
	if err := store.ReadInto(ctx, gw, store.Devices, &devices); err != nil {
		return err
	}
	if err := store.ReadInto(ctx, gw, store.Products, &products); err != nil {
		return err
	}
	if err := store.ReadInto(ctx, gw, store.Users, &logins); err != nil {
		return err
	}
	if err := store.ReadInto(ctx, gw, store.Teachers, &teachers); err != nil {
		return err
	}
	for _, coll := range store.StudentCollections {
		var batch []models.StudentUser
		if err := store.ReadInto(ctx, gw, coll, &batch); err != nil {
			continue // a missing grade sheet is not fatal
		}
		students = append(students, batch...)
	}
	if err := store.ReadInto(ctx, gw, store.History, &history); err != nil {
		return err
	}
	if err := store.ReadInto(ctx, gw, store.Service, &service); err != nil {
		return err
	}
	if err := store.ReadInto(ctx, gw, store.ActivityLogs, &logs); err != nil {
		return err
	}
	if err := store.ReadInto(ctx, gw, store.ProductApprovals, &approvals); err != nil {
		return err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Timestamp > logs[j].Timestamp })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.devices = hydrateAll(devices, products)
	s.logins = logins
	s.teachers = teachers
	s.students = students
	s.history = history
	s.serviceRequests = service
	s.activityLogs = logs
	s.productApprovals = approvals
	return nil
}

func hydrateAll(devices []models.Device, products []models.Product) []models.Device {
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Hydrate(byID[d.ProductID]))
	}
	return out
}

// LockDevice serializes lifecycle operations on a single device. The store
// has no compare-and-swap, so this process is the single writer per device.
func (s *AppState) LockDevice(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// --- read side ---

func (s *AppState) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Device(nil), s.devices...)
}

func (s *AppState) DeviceByID(id string) (models.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if d.ID == id {
			return d, true
		}
	}
	return models.Device{}, false
}

// DeviceByCode resolves a scanned code against asset tag or serial number.
func (s *AppState) DeviceByCode(code string) (models.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if d.ID == code || d.SerialNumber == code {
			return d, true
		}
	}
	return models.Device{}, false
}

func (s *AppState) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...)
}

func (s *AppState) ProductByID(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *AppState) Logins() []models.LoginUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LoginUser(nil), s.logins...)
}

func (s *AppState) Teachers() []models.TeacherUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TeacherUser(nil), s.teachers...)
}

func (s *AppState) Students() []models.StudentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StudentUser(nil), s.students...)
}

// RoleByUsername resolves a borrower display name against the combined
// teacher and student directories. The join is case-sensitive on purpose:
// that is how the sheet rows were written. Unknown names default to Student.
func (s *AppState) RoleByUsername(username string) models.UserRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teachers {
		if t.Username == username {
			return t.Role
		}
	}
	for _, st := range s.students {
		if st.Username == username {
			return st.Role
		}
	}
	return models.RoleStudent
}

func (s *AppState) History() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.HistoryEntry(nil), s.history...)
}

func (s *AppState) ServiceRequests() []models.ServiceRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ServiceRequest(nil), s.serviceRequests...)
}

func (s *AppState) ServiceRequestByID(id string) (models.ServiceRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.serviceRequests {
		if r.ID == id {
			return r, true
		}
	}
	return models.ServiceRequest{}, false
}

func (s *AppState) ActivityLogs() []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ActivityLog(nil), s.activityLogs...)
}

func (s *AppState) ProductApprovals() []models.ProductApprovalRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ProductApprovalRequest(nil), s.productApprovals...)
}

func (s *AppState) ProductApprovalByID(id string) (models.ProductApprovalRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.productApprovals {
		if r.ID == id {
			return r, true
		}
	}
	return models.ProductApprovalRequest{}, false
}

// --- write side (called only after the gateway confirmed the write) ---

func (s *AppState) PutDevice(d models.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.devices {
		if s.devices[i].ID == d.ID {
			s.devices[i] = d
			return
		}
	}
	s.devices = append([]models.Device{d}, s.devices...)
}

func (s *AppState) RemoveDevice(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return
		}
	}
}

// PutProduct stores the product and re-hydrates the devices that instantiate
// it, so display fields track product edits.
func (s *AppState) PutProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			found = true
			break
		}
	}
	if !found {
		s.products = append([]models.Product{p}, s.products...)
	}
	for i := range s.devices {
		if s.devices[i].ProductID == p.ID {
			s.devices[i] = s.devices[i].Hydrate(&p)
		}
	}
}

func (s *AppState) RemoveProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return
		}
	}
}

func (s *AppState) PrependHistory(h models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]models.HistoryEntry{h}, s.history...)
}

func (s *AppState) PrependServiceRequest(r models.ServiceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceRequests = append([]models.ServiceRequest{r}, s.serviceRequests...)
}

func (s *AppState) PutServiceRequest(r models.ServiceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.serviceRequests {
		if s.serviceRequests[i].ID == r.ID {
			s.serviceRequests[i] = r
			return
		}
	}
	s.serviceRequests = append([]models.ServiceRequest{r}, s.serviceRequests...)
}

func (s *AppState) PrependActivityLog(l models.ActivityLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityLogs = append([]models.ActivityLog{l}, s.activityLogs...)
}

func (s *AppState) PrependProductApproval(r models.ProductApprovalRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productApprovals = append([]models.ProductApprovalRequest{r}, s.productApprovals...)
}

func (s *AppState) PutProductApproval(r models.ProductApprovalRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.productApprovals {
		if s.productApprovals[i].ID == r.ID {
			s.productApprovals[i] = r
			return
		}
	}
	s.productApprovals = append([]models.ProductApprovalRequest{r}, s.productApprovals...)
}

func (s *AppState) PutTeacher(t models.TeacherUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.teachers {
		if s.teachers[i].ID == t.ID {
			s.teachers[i] = t
			return
		}
	}
	s.teachers = append(s.teachers, t)
}

func (s *AppState) PutStudent(st models.StudentUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.students {
		if s.students[i].ID == st.ID {
			s.students[i] = st
			return
		}
	}
	s.students = append(s.students, st)
}
