package memory

import (
	"fmt"
	"sync"

	"github.com/sokcuri/mysql-emulator/sql"
)

// Server is an in-memory implementation of sql.Server: a registry of
// named Databases plus the session's current database.
type Server struct {
	mu        sync.Mutex
	databases map[string]*Database
	current   string
}

// NewServer builds an empty server.
func NewServer() *Server {
	return &Server{databases: make(map[string]*Database)}
}

// CurrentDatabase implements sql.Server.
func (s *Server) CurrentDatabase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrentDatabase implements sql.Server.
func (s *Server) SetCurrentDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = name
}

// GetDatabase implements sql.Server.
func (s *Server) GetDatabase(name string) (sql.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[name]
	if !ok {
		return nil, fmt.Errorf("database not found: '%s'", name)
	}
	return db, nil
}

// CreateDatabase implements sql.Server.
func (s *Server) CreateDatabase(name string) (sql.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.databases[name]; ok {
		return nil, fmt.Errorf("database already exists: '%s'", name)
	}
	db := NewDatabase(name)
	s.databases[name] = db
	return db, nil
}
