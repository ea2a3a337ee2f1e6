package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rana718/injectdb/internal/database"
	"github.com/Rana718/injectdb/internal/frame"
	"github.com/Rana718/injectdb/internal/importer"
)

type Role string

const (
	RoleDestination Role = "destination"
	RoleSource      Role = "source"
)

var (
	ErrUnknownRole  = errors.New("role must be destination or source")
	ErrOutOfRange   = errors.New("no entry at that position")
	ErrNothingToPop = errors.New("no relationship to remove")
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDestination, "":
		return RoleDestination, nil
	case RoleSource:
		return RoleSource, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Opener connects to the database behind url.
type Opener func(ctx context.Context, url string) (database.DatabaseAdapter, error)

type connection struct {
	url     string
	adapter database.DatabaseAdapter
}

// Session is the state of one browser: the uploaded file, open connections
// and the mapping and relationship lists built in the form.
type Session struct {
	ID string

	mu            sync.Mutex
	open          Opener
	fileName      string
	frame         *frame.Frame
	connections   map[Role]*connection
	defaults      map[Role]string
	mappings      []importer.Mapping
	relationships []importer.Relationship
	lastSeen      time.Time
}

func newSession(id string, open Opener, now time.Time) *Session {
	return &Session{
		ID:          id,
		open:        open,
		connections: make(map[Role]*connection),
		defaults:    make(map[Role]string),
		lastSeen:    now,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) SetFrame(name string, f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileName = name
	s.frame = f
}

// Frame returns the uploaded frame and its file name.
func (s *Session) Frame() (*frame.Frame, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, "", importer.ErrNoFrame
	}
	return s.frame, s.fileName, nil
}

// Connect opens url for role, replacing and closing any earlier connection.
// The earlier connection is kept when the new one fails.
func (s *Session) Connect(ctx context.Context, role Role, url string) error {
	adapter, err := s.open(ctx, url)
	if err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.connections[role]
	s.connections[role] = &connection{url: url, adapter: adapter}
	s.mu.Unlock()

	if previous != nil {
		previous.adapter.Close()
	}
	return nil
}

// SetDefault records a URL that Adapter connects to the first time role is
// needed without an explicit Connect.
func (s *Session) SetDefault(role Role, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[role] = url
}

// Adapter returns the role's connection, opening the role's default URL when
// nothing has been connected yet.
func (s *Session) Adapter(ctx context.Context, role Role) (database.DatabaseAdapter, error) {
	s.mu.Lock()
	conn, ok := s.connections[role]
	url := s.defaults[role]
	s.mu.Unlock()
	if ok {
		return conn.adapter, nil
	}
	if url == "" {
		return nil, fmt.Errorf("%s %w", role, importer.ErrNotConnected)
	}

	adapter, err := s.open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database: %w", role, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.connections[role]; ok {
		adapter.Close()
		return existing.adapter, nil
	}
	s.connections[role] = &connection{url: url, adapter: adapter}
	return adapter, nil
}

// ConnectionURL returns the masked URL of the role's connection, or of its
// default while that is still unopened.
func (s *Session) ConnectionURL(role Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn, ok := s.connections[role]; ok {
		return database.MaskURL(conn.url)
	}
	return database.MaskURL(s.defaults[role])
}

func (s *Session) AddMapping(m importer.Mapping) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = append(s.mappings, m)
	return len(s.mappings) - 1
}

func (s *Session) UpdateMapping(index int, m importer.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.mappings) {
		return ErrOutOfRange
	}
	s.mappings[index] = m
	return nil
}

func (s *Session) RemoveMapping(index int) (importer.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.mappings) {
		return importer.Mapping{}, ErrOutOfRange
	}
	removed := s.mappings[index]
	s.mappings = append(s.mappings[:index], s.mappings[index+1:]...)
	return removed, nil
}

func (s *Session) Mappings() []importer.Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]importer.Mapping{}, s.mappings...)
}

// AddRelationship appends r. Only complete relationships are accepted.
func (s *Session) AddRelationship(r importer.Relationship) (int, error) {
	if !r.Complete() {
		return -1, fmt.Errorf("relationship needs source table, source column, destination table and destination column")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, r)
	return len(s.relationships) - 1, nil
}

func (s *Session) RemoveRelationship(index int) (importer.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.relationships) {
		return importer.Relationship{}, ErrOutOfRange
	}
	removed := s.relationships[index]
	s.relationships = append(s.relationships[:index], s.relationships[index+1:]...)
	return removed, nil
}

func (s *Session) RemoveLastRelationship() (importer.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.relationships) == 0 {
		return importer.Relationship{}, ErrNothingToPop
	}
	last := s.relationships[len(s.relationships)-1]
	s.relationships = s.relationships[:len(s.relationships)-1]
	return last, nil
}

func (s *Session) Relationships() []importer.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]importer.Relationship{}, s.relationships...)
}

func (s *Session) Plan() importer.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return importer.Plan{
		Version:       importer.PlanVersion,
		Source:        s.fileName,
		Mappings:      append([]importer.Mapping{}, s.mappings...),
		Relationships: append([]importer.Relationship{}, s.relationships...),
	}
}

// ApplyPlan replaces the mapping and relationship lists with the plan's.
func (s *Session) ApplyPlan(p importer.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = append([]importer.Mapping{}, p.Mappings...)
	s.relationships = append([]importer.Relationship{}, p.Relationships...)
}

// Reset drops the uploaded file, the lists and closes every connection.
// Defaults stay and are reopened on demand.
func (s *Session) Reset() {
	s.mu.Lock()
	connections := s.connections
	s.connections = make(map[Role]*connection)
	s.frame = nil
	s.fileName = ""
	s.mappings = nil
	s.relationships = nil
	s.mu.Unlock()

	for _, conn := range connections {
		conn.adapter.Close()
	}
}
