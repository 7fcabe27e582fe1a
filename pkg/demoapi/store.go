package demoapi

import (
	"sort"
	"strings"
	"sync"
)

// User is the resource served by the API.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// Store is an in-memory user store safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	users  map[int]User
	nextID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{users: make(map[int]User), nextID: 1}
}

// Create assigns an id to u and stores it.
func (s *Store) Create(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = u
	return u
}

// Get returns the user with the given id.
func (s *Store) Get(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Put replaces an existing user. Returns false if it does not exist.
func (s *Store) Put(u User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return false
	}
	s.users[u.ID] = u
	return true
}

// Delete removes a user. Returns false if it does not exist.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

// List returns users ordered by id whose name contains q (case-insensitive).
func (s *Store) List(q string) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q = strings.ToLower(q)
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
