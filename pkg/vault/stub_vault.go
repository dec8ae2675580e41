package vault

import (
	"context"
	"fmt"
	"sync"
)

// StubVault is an in-memory Vault for tests, with failure injection for
// exercising the orchestrator's degradation paths.
type StubVault struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	profiles  map[string][]byte

	FailSaves bool
	FailLoads bool
	SaveCount int
}

func NewStubVault() *StubVault {
	return &StubVault{
		snapshots: map[string][]byte{},
		profiles:  map[string][]byte{},
	}
}

func (s *StubVault) LoadSnapshot(ctx context.Context, userID string) ([]byte, error) {
	return s.load(s.snapshots, userID)
}

func (s *StubVault) SaveSnapshot(ctx context.Context, userID string, data []byte) error {
	return s.save(s.snapshots, userID, data)
}

func (s *StubVault) LoadProfile(ctx context.Context, userID string) ([]byte, error) {
	return s.load(s.profiles, userID)
}

func (s *StubVault) SaveProfile(ctx context.Context, userID string, data []byte) error {
	return s.save(s.profiles, userID, data)
}

// Snapshot returns the stored snapshot bytes for assertions.
func (s *StubVault) Snapshot(userID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[userID]
}

// Profile returns the stored profile bytes for assertions.
func (s *StubVault) Profile(userID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID]
}

// SeedSnapshot pre-populates a snapshot blob, as if a prior session saved it.
func (s *StubVault) SeedSnapshot(userID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = data
}

func (s *StubVault) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = map[string][]byte{}
	s.profiles = map[string][]byte{}
	s.FailSaves = false
	s.FailLoads = false
	s.SaveCount = 0
}

func (s *StubVault) load(blobs map[string][]byte, userID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoads {
		return nil, fmt.Errorf("%w: injected load failure", ErrUnavailable)
	}
	data, ok := blobs[userID]
	if !ok {
		return nil, fmt.Errorf("%w: no blob for user %s", ErrNotFound, userID)
	}
	return data, nil
}

func (s *StubVault) save(blobs map[string][]byte, userID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCount++
	if s.FailSaves {
		return fmt.Errorf("%w: injected save failure", ErrUnavailable)
	}
	blobs[userID] = append([]byte{}, data...)
	return nil
}
