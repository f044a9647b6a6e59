// package casmem is an in-memory cas.Client. It backs the package
// tests and the local development mode of the antns CLI; chunk
// addresses are the SHA3-256 of the content, registers live in process
// memory.
package casmem

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"

	"antns.org/antns-go/pkg/cas"
	"antns.org/antns-go/pkg/registerkey"
)

type Store struct {
	mu        sync.Mutex
	chunks    map[cas.Address][]byte
	registers map[cas.Address][]cas.Address

	// Optional failure injection, for tests. When non-nil, the hook
	// runs before the operation; a non-nil return aborts with that
	// error.
	GetHook    func(addr cas.Address) error
	AppendHook func(addr cas.Address) error
	StreamHook func(index int) error
}

func New() *Store {
	return &Store{
		chunks:    make(map[cas.Address][]byte),
		registers: make(map[cas.Address][]cas.Address),
	}
}

func (s *Store) ChunkPut(_ context.Context, data []byte, _ string) (cas.Address, error) {
	addr := cas.Address(sha3.Sum256(data))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[addr] = append([]byte(nil), data...)
	return addr, nil
}

func (s *Store) ChunkGet(_ context.Context, addr cas.Address) ([]byte, error) {
	if s.GetHook != nil {
		if err := s.GetHook(addr); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.chunks[addr]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", addr, cas.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) RegisterCreate(_ context.Context, secret *registerkey.Secret, _ string, initial cas.Address, _ string) (cas.Address, error) {
	pub := secret.Public()
	addr := cas.Address(pub.Address())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registers[addr]; exists {
		return cas.Address{}, fmt.Errorf("register %s already exists", addr)
	}
	s.registers[addr] = []cas.Address{initial}
	return addr, nil
}

func (s *Store) RegisterAppend(_ context.Context, secret *registerkey.Secret, _ string, entry cas.Address, _ string) error {
	pub := secret.Public()
	addr := cas.Address(pub.Address())
	if s.AppendHook != nil {
		if err := s.AppendHook(addr); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registers[addr]; !exists {
		return fmt.Errorf("register %s: %w", addr, cas.ErrNotFound)
	}
	s.registers[addr] = append(s.registers[addr], entry)
	return nil
}

func (s *Store) RegisterHistory(_ context.Context, registerAddr cas.Address) (cas.HistoryStream, error) {
	s.mu.Lock()
	entries, ok := s.registers[registerAddr]
	snapshot := append([]cas.Address(nil), entries...)
	s.mu.Unlock()
	if !ok {
		return &stream{}, nil
	}
	return &stream{entries: snapshot, store: s}, nil
}

// AppendRaw appends an entry directly to a register, bypassing key
// derivation. Tests use it to plant spam from third parties.
func (s *Store) AppendRaw(registerAddr, entry cas.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[registerAddr] = append(s.registers[registerAddr], entry)
}

// Len returns the current register length, 0 if absent.
func (s *Store) Len(registerAddr cas.Address) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registers[registerAddr])
}

type stream struct {
	entries []cas.Address
	next    int
	store   *Store
}

func (st *stream) Next(ctx context.Context) (cas.Address, bool, error) {
	if err := ctx.Err(); err != nil {
		return cas.Address{}, false, err
	}
	if st.store != nil && st.store.StreamHook != nil {
		if err := st.store.StreamHook(st.next); err != nil {
			return cas.Address{}, false, err
		}
	}
	if st.next >= len(st.entries) {
		return cas.Address{}, false, nil
	}
	entry := st.entries[st.next]
	st.next++
	return entry, true, nil
}
