package presence

import (
	"sync"
	"time"
)

// Status — текущее состояние присутствия администратора.
type Status struct {
	Online     bool      `json:"online"`
	LastUpdate time.Time `json:"lastUpdate"`
	AdminEmail string    `json:"adminEmail,omitempty"`
}

// Tracker хранит флаг присутствия только в памяти процесса: после рестарта
// сервера администратор всегда считается offline, что бы ни было до этого.
type Tracker struct {
	mu        sync.RWMutex
	status    Status
	staleness time.Duration
	now       func() time.Time
}

// NewTracker создаёт трекер с окном устаревания; staleness == 0 отключает
// автоматический сброс в offline.
func NewTracker(staleness time.Duration) *Tracker {
	return &Tracker{
		staleness: staleness,
		now:       time.Now,
	}
}

// Set выставляет флаг от имени администратора и обновляет метку времени.
func (t *Tracker) Set(online bool, adminEmail string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = Status{
		Online:     online,
		LastUpdate: t.now(),
		AdminEmail: adminEmail,
	}
	return t.status
}

// Online возвращает флаг с учётом окна устаревания: если администратор
// давно не обновлял статус, он считается offline.
func (t *Tracker) Online() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.status.Online {
		return false
	}
	if t.staleness > 0 && t.now().Sub(t.status.LastUpdate) > t.staleness {
		return false
	}
	return true
}
