// Package memstore is an in-memory, transactional implementation of every
// repository the engine uses. Transactions are serialized and roll back by
// restoring a snapshot of all tables.
package memstore

import (
	"context"
	"sync"

	alliancemodels "statecraft/internal/alliance/models"
	citizenmodels "statecraft/internal/citizenship/models"
	dirmodels "statecraft/internal/directory/models"
	historymodels "statecraft/internal/history/models"
	relationmodels "statecraft/internal/relations/models"
	warmodels "statecraft/internal/wars/models"
	"statecraft/pkg/database"
)

type tables struct {
	states          []dirmodels.State
	members         []citizenmodels.Member
	alliances       []alliancemodels.Alliance
	allianceMembers []alliancemodels.Member
	relations       []relationmodels.Relation
	requests        []relationmodels.Request
	wars            []warmodels.War
	participants    []warmodels.Participant
	battles         []warmodels.Battle
	events          []historymodels.Event
}

func (t tables) clone() tables {
	return tables{
		states:          append([]dirmodels.State(nil), t.states...),
		members:         append([]citizenmodels.Member(nil), t.members...),
		alliances:       append([]alliancemodels.Alliance(nil), t.alliances...),
		allianceMembers: append([]alliancemodels.Member(nil), t.allianceMembers...),
		relations:       append([]relationmodels.Relation(nil), t.relations...),
		requests:        append([]relationmodels.Request(nil), t.requests...),
		wars:            append([]warmodels.War(nil), t.wars...),
		participants:    append([]warmodels.Participant(nil), t.participants...),
		battles:         append([]warmodels.Battle(nil), t.battles...),
		events:          append([]historymodels.Event(nil), t.events...),
	}
}

type txKey struct{}

// Store holds every table. Rows are kept in insertion order.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data tables
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// WithTransaction runs fn atomically. A context already inside a
// transaction joins it. AfterCommit hooks run once fn succeeds.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	txCtx, scope := database.NewCommitScope(context.WithValue(ctx, txKey{}, true))
	if err := s.run(txCtx, fn); err != nil {
		return err
	}
	scope.Flush(ctx)
	return nil
}

func (s *Store) run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// Members returns the citizenship repository view
func (s *Store) Members() *Members { return &Members{s: s} }

// Alliances returns the alliance repository view
func (s *Store) Alliances() *Alliances { return &Alliances{s: s} }

// Relations returns the relation repository view
func (s *Store) Relations() *Relations { return &Relations{s: s} }

// Wars returns the war repository view
func (s *Store) Wars() *Wars { return &Wars{s: s} }

// States returns the state directory view
func (s *Store) States() *States { return &States{s: s} }

// History returns the history log view
func (s *Store) History() *History { return &History{s: s} }
