package telemetry

import (
	"sort"
	"sync"
	"time"
)

// Update is the latest value of one sensor
type Update struct {
	Sensor string    `json:"sensor"`
	Value  any       `json:"value"` // float64 or string
	At     time.Time `json:"at"`
}

// Number returns the value as a float64 if it is numeric
func (u Update) Number() (float64, bool) {
	v, ok := u.Value.(float64)
	return v, ok
}

// Text returns the value as a string if it is textual
func (u Update) Text() (string, bool) {
	v, ok := u.Value.(string)
	return v, ok
}

// Store keeps the latest value per sensor and fans updates out to
// subscribers. It implements protocol.Publisher.
type Store struct {
	mu     sync.RWMutex
	values map[string]Update
	subs   map[int]chan Update
	nextID int
	now    func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		values: make(map[string]Update),
		subs:   make(map[int]chan Update),
		now:    time.Now,
	}
}

// PublishNumber records a numeric sensor value
func (s *Store) PublishNumber(sensor string, value float64) {
	s.publish(sensor, value)
}

// PublishText records a text sensor value
func (s *Store) PublishText(sensor string, value string) {
	s.publish(sensor, value)
}

func (s *Store) publish(sensor string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := Update{Sensor: sensor, Value: value, At: s.now()}
	s.values[sensor] = u

	// Never block the engine on a slow subscriber
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Subscribe returns a channel of future updates and a function that
// unsubscribes and closes it.
func (s *Store) Subscribe(buffer int) (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Update, buffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Get returns the latest value of a sensor
func (s *Store) Get(sensor string) (Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.values[sensor]
	return u, ok
}

// Snapshot returns the latest value of every sensor, sorted by name
func (s *Store) Snapshot() []Update {
	s.mu.RLock()
	out := make([]Update, 0, len(s.values))
	for _, u := range s.values {
		out = append(out, u)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Sensor < out[j].Sensor })
	return out
}
