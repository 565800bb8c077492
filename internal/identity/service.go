// Package identity issues and tracks the PersistentId values that give
// entities stable identity across scene round-trips (spec §4.A).
package identity

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"enginecore/internal/errkit"
)

// Kind selects the identifier format a world generates new ids in.
type Kind string

const (
	KindUUID Kind = "uuid"
	KindULID Kind = "ulid"
)

// MigrationRecord preserves the old/new id pair when a legacy id format is
// upgraded to the world's configured kind, so scene metadata can record it.
type MigrationRecord struct {
	OldID string
	NewID string
}

// Service generates, reserves, and releases PersistentId values for a single
// world. It never recycles an id once issued.
type Service struct {
	mu        sync.Mutex
	kind      Kind
	reserved  map[string]struct{}
	ulidEntropy *ulidState
}

// NewService creates an identity service for one world.
func NewService(kind Kind) *Service {
	if kind == "" {
		kind = KindUUID
	}
	return &Service{
		kind:        kind,
		reserved:    make(map[string]struct{}),
		ulidEntropy: newULIDState(),
	}
}

// Generate returns a fresh id of the configured kind. The id is not
// reserved; callers that intend to keep it must call Reserve.
func (s *Service) Generate() string {
	switch s.kind {
	case KindULID:
		return s.ulidEntropy.next()
	default:
		return uuid.New().String()
	}
}

// Reserve marks id as in-use. It fails with DuplicatePersistentId if the id
// is already reserved.
func (s *Service) Reserve(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reserved[id]; exists {
		return errkit.New(errkit.DuplicatePersistentId, fmt.Sprintf("persistent id %q already reserved", id))
	}
	s.reserved[id] = struct{}{}
	return nil
}

// Release removes a reservation, making the id available again. Per spec
// §3, PersistentId values are never recycled — Release exists only to
// clean up bookkeeping after Store.DeleteEntity, not to make the id reusable by
// policy; callers must not reissue a released id themselves.
func (s *Service) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, id)
}

// IsReserved reports whether id is currently in use.
func (s *Service) IsReserved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.reserved[id]
	return exists
}

// MigrateIfLegacy validates id against the configured kind and, if it
// doesn't parse, generates a replacement of the correct kind, returning a
// MigrationRecord for the caller to preserve in scene metadata.
func (s *Service) MigrateIfLegacy(id string) (string, *MigrationRecord) {
	if s.isValid(id) {
		return id, nil
	}
	fresh := s.Generate()
	return fresh, &MigrationRecord{OldID: id, NewID: fresh}
}

func (s *Service) isValid(id string) bool {
	switch s.kind {
	case KindULID:
		return isValidULID(id)
	default:
		_, err := uuid.Parse(id)
		return err == nil
	}
}

// ulidState generates Crockford-base32 ULIDs. No ULID library appears
// anywhere in the retrieval pack (see DESIGN.md), so this is a small,
// self-contained implementation following the canonical ULID layout:
// 48 bits of millisecond timestamp + 80 bits of randomness.
type ulidState struct {
	mu sync.Mutex
}

func newULIDState() *ulidState {
	return &ulidState{}
}

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func (u *ulidState) next() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	var entropy [10]byte
	_, _ = rand.Read(entropy[:])

	// Timestamp component: the current Unix time in milliseconds, 48 bits
	// big-endian. Ids generated within the same millisecond are not ordered.
	ms := uint64(time.Now().UnixMilli())
	var ts [6]byte
	for i := 5; i >= 0; i-- {
		ts[i] = byte(ms)
		ms >>= 8
	}

	var raw [16]byte
	copy(raw[:6], ts[:])
	copy(raw[6:], entropy[:])

	return encodeCrockford(raw)
}

func encodeCrockford(raw [16]byte) string {
	var sb strings.Builder
	sb.Grow(26)

	// 128 bits -> 26 base32 characters (last char carries 2 zero padding bits).
	var bits uint64
	bitCount := 0
	idx := 0
	out := make([]byte, 0, 26)
	for idx < 16 || bitCount > 0 {
		for bitCount < 5 && idx < 16 {
			bits = (bits << 8) | uint64(raw[idx])
			bitCount += 8
			idx++
		}
		if bitCount < 5 {
			bits <<= uint(5 - bitCount)
			bitCount = 5
		}
		shift := bitCount - 5
		out = append(out, crockford[(bits>>uint(shift))&0x1F])
		bitCount -= 5
		bits &= (1 << uint(bitCount)) - 1
	}
	sb.Write(out)
	return sb.String()
}

func isValidULID(id string) bool {
	if len(id) != 26 {
		return false
	}
	for _, c := range id {
		if strings.IndexRune(crockford, c) < 0 {
			return false
		}
	}
	return true
}
