package reservation

import (
	"context"
	"sync"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// memStore is an in-memory Store with the same guard semantics as the MySQL
// conditional decrement.
type memStore struct {
	mu         sync.Mutex
	shows      map[uint64]*model.Show
	tickets    []model.Ticket
	nextID     uint64
	getErr     error
	reserveErr error
	// beforeReserve runs unlocked before the guarded write; tests use it to
	// interleave a competing reservation.
	beforeReserve func()
}

func newMemStore(shows ...model.Show) *memStore {
	m := &memStore{shows: map[uint64]*model.Show{}}
	for i := range shows {
		s := shows[i]
		m.shows[s.ID] = &s
	}
	return m
}

func (m *memStore) GetShow(_ context.Context, id uint64) (*model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.shows[id]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ReserveSeats(_ context.Context, t *model.Ticket) (uint32, error) {
	if f := m.beforeReserve; f != nil {
		m.beforeReserve = nil
		f()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return 0, m.reserveErr
	}
	s, ok := m.shows[t.ShowID]
	if !ok {
		return 0, repository.ErrShowNotFound
	}
	if s.SeatsAvailable < t.NumberOfTickets {
		return 0, repository.ErrInsufficientSeats
	}
	s.SeatsAvailable -= t.NumberOfTickets
	m.nextID++
	t.ID = m.nextID
	m.tickets = append(m.tickets, *t)
	return s.SeatsAvailable, nil
}

func (m *memStore) seats(id uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows[id].SeatsAvailable
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

func (m *memStore) seatsSold(showID uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n uint32
	for _, t := range m.tickets {
		if t.ShowID == showID {
			n += t.NumberOfTickets
		}
	}
	return n
}
