package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

// memStore is an in-memory BookingRepository. Provider transactions are
// serialized per provider unless skipLock is set, and CreateAppointment
// enforces the one-active-appointment-per-slot rule like the partial unique
// index does.
type memStore struct {
	mu        sync.Mutex
	providers map[uuid.UUID]domain.Provider
	services  map[uuid.UUID]domain.Service
	windows   []domain.AvailabilitySlot
	blocked   []domain.BlockedDate
	appts     map[uuid.UUID]domain.Appointment

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	skipLock     bool
	beforeInsert func()
	readErr      error
}

func newMemStore() *memStore {
	return &memStore{
		providers: make(map[uuid.UUID]domain.Provider),
		services:  make(map[uuid.UUID]domain.Service),
		appts:     make(map[uuid.UUID]domain.Appointment),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

var _ store.BookingRepository = (*memStore)(nil)

func (m *memStore) addProvider(userID string, typ domain.ProviderType, name string) domain.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := domain.Provider{ID: uuid.New(), UserID: userID, ProviderType: typ, DisplayName: name}
	m.providers[p.ID] = p
	return p
}

func (m *memStore) addService(providerID uuid.UUID, name string) domain.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.Service{ID: uuid.New(), ProviderID: providerID, Name: name, Price: decimal.NewFromInt(25)}
	m.services[s.ID] = s
	return s
}

func (m *memStore) addWindow(providerID uuid.UUID, day time.Weekday, start, end string) {
	s, _ := domain.ParseTimeOfDay(start)
	e, _ := domain.ParseTimeOfDay(end)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = append(m.windows, domain.AvailabilitySlot{
		ID: uuid.New(), ProviderID: providerID, DayOfWeek: day, StartTime: s, EndTime: e, IsActive: true,
	})
}

func (m *memStore) appointmentCount(providerID uuid.UUID, status domain.AppointmentStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.Status == status {
			n++
		}
	}
	return n
}

func (m *memStore) Ping(ctx context.Context) error {
	return m.readErr
}

func (m *memStore) ListProviders(ctx context.Context, providerType *domain.ProviderType) ([]domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.Provider, 0, len(m.providers))
	for _, p := range m.providers {
		if providerType != nil && p.ProviderType != *providerType {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProviderType != out[j].ProviderType {
			return out[i].ProviderType < out[j].ProviderType
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

func (m *memStore) GetProvider(ctx context.Context, providerID uuid.UUID) (domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[providerID]
	if !ok {
		return domain.Provider{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetProviderByUserID(ctx context.Context, userID string) (domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return domain.Provider{}, store.ErrNotFound
}

func (m *memStore) ListServices(ctx context.Context, providerID uuid.UUID) ([]domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Service, 0)
	for _, s := range m.services {
		if s.ProviderID == providerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) IsDateBlocked(ctx context.Context, providerID uuid.UUID, date domain.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	for _, b := range m.blocked {
		if b.ProviderID == providerID && b.BlockedDate == date {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListActiveWindows(ctx context.Context, providerID uuid.UUID, day time.Weekday) ([]domain.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AvailabilitySlot, 0)
	for _, w := range m.windows {
		if w.ProviderID == providerID && w.DayOfWeek == day && w.IsActive {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *memStore) ListOccupiedTimes(ctx context.Context, providerID uuid.UUID, date domain.Date) ([]domain.TimeOfDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TimeOfDay, 0)
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.AppointmentDate == date && a.Status.Occupies() {
			out = append(out, a.AppointmentTime)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *memStore) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[appointmentID]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (m *memStore) ListAvailability(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AvailabilitySlot, 0)
	for _, w := range m.windows {
		if w.ProviderID == providerID {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *memStore) ListBlockedDates(ctx context.Context, providerID uuid.UUID) ([]domain.BlockedDate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.BlockedDate, 0)
	for _, b := range m.blocked {
		if b.ProviderID == providerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedDate.Before(out[j].BlockedDate) })
	return out, nil
}

func (m *memStore) listViews(match func(domain.Appointment) bool) []domain.AppointmentView {
	out := make([]domain.AppointmentView, 0)
	for _, a := range m.appts {
		if !match(a) {
			continue
		}
		out = append(out, domain.AppointmentView{
			Appointment:  a,
			ProviderName: m.providers[a.ProviderID].DisplayName,
			ProviderType: m.providers[a.ProviderID].ProviderType,
			ServiceName:  m.services[a.ServiceID].Name,
			ServicePrice: m.services[a.ServiceID].Price,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[j].AppointmentDate.Before(out[i].AppointmentDate)
		}
		return out[i].AppointmentTime > out[j].AppointmentTime
	})
	return out
}

func (m *memStore) ListUserAppointments(ctx context.Context, userID string) ([]domain.AppointmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listViews(func(a domain.Appointment) bool { return a.UserID == userID }), nil
}

func (m *memStore) ListProviderAppointments(ctx context.Context, providerID uuid.UUID) ([]domain.AppointmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listViews(func(a domain.Appointment) bool { return a.ProviderID == providerID }), nil
}

func (m *memStore) InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx store.ProviderTx) error) error {
	if !m.skipLock {
		m.locksMu.Lock()
		l, ok := m.locks[providerID]
		if !ok {
			l = &sync.Mutex{}
			m.locks[providerID] = l
		}
		m.locksMu.Unlock()

		l.Lock()
		defer l.Unlock()
	}
	return fn(ctx, memTx{m})
}

type memTx struct {
	*memStore
}

func (t memTx) GetService(ctx context.Context, providerID, serviceID uuid.UUID) (domain.Service, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.services[serviceID]
	if !ok || s.ProviderID != providerID {
		return domain.Service{}, store.ErrNotFound
	}
	return s, nil
}

func (t memTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if t.beforeInsert != nil {
		t.beforeInsert()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if _, ok := t.appts[appt.ID]; ok {
		return domain.Appointment{}, store.ErrIdempotencyConflict
	}
	for _, a := range t.appts {
		if a.ProviderID == appt.ProviderID && a.AppointmentDate == appt.AppointmentDate &&
			a.AppointmentTime == appt.AppointmentTime && a.Status.Occupies() {
			return domain.Appointment{}, store.ErrSlotTaken
		}
	}
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	t.appts[appt.ID] = appt
	return appt, nil
}

func (t memTx) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.appts[appointmentID]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	t.appts[appointmentID] = a
	return a, nil
}

func (t memTx) CreateAvailabilitySlot(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, w := range t.windows {
		if w.ProviderID == slot.ProviderID && w.IsActive && slot.IsActive && w.Overlaps(slot) {
			return domain.AvailabilitySlot{}, store.ErrWindowOverlap
		}
	}
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now().UTC()
	t.windows = append(t.windows, slot)
	return slot, nil
}

func (t memTx) BlockDate(ctx context.Context, blocked domain.BlockedDate) (domain.BlockedDate, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range t.blocked {
		if b.ProviderID == blocked.ProviderID && b.BlockedDate == blocked.BlockedDate {
			return b, false, nil
		}
	}
	blocked.ID = uuid.New()
	blocked.CreatedAt = time.Now().UTC()
	t.blocked = append(t.blocked, blocked)
	return blocked, true, nil
}
