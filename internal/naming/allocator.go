package naming

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"orrery/internal/catalog"
	"orrery/internal/logging"
)

// Store is the subset of catalog queries the allocator reads.
type Store interface {
	NamedWithIdentityPrefix(ctx context.Context, prefix string) ([]*catalog.Candidate, error)
	AssignedNames(ctx context.Context) ([]string, error)
}

// Allocation is the result of one name assignment. Fallback marks the
// degraded time-derived path so callers can tell it apart from a
// deterministic allocation.
type Allocation struct {
	Name     string
	Label    int
	Letter   string
	Fallback bool
}

// Allocator assigns grouped letter-suffixed designations to newly confirmed
// candidates. It holds no state of its own and no locks; the single-flight
// pass guarantee serializes allocations.
type Allocator struct {
	store  Store
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger attaches a logger to the allocator.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logging.WithComponent(logger, "naming")
		}
	}
}

// WithClock overrides the wall clock used for fallback names.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an allocator using the given designation prefix, e.g. "ORR"
// yields names like "ORR-417 b".
func New(store Store, prefix string, opts ...Option) *Allocator {
	allocator := &Allocator{
		store:  store,
		prefix: strings.TrimSpace(prefix),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(allocator)
	}
	return allocator
}

// Allocate determines the next available designation for the given identity.
// A name is always produced: internal failures degrade to a time-derived
// fallback instead of propagating an error into the pass.
func (a *Allocator) Allocate(ctx context.Context, identity string) Allocation {
	groupBase := catalog.GroupBase(identity)

	members, err := a.store.NamedWithIdentityPrefix(ctx, groupBase+".")
	if err != nil {
		return a.fallback(identity, fmt.Errorf("query group %s: %w", groupBase, err))
	}

	if len(members) > 0 {
		return a.allocateWithinGroup(identity, members)
	}
	return a.allocateNewLabel(ctx, identity)
}

// allocateWithinGroup reuses the numeric label of the most populated label
// among the group's named members. The identity-prefix heuristic can disagree
// with the archive's physical grouping, in which case members may carry more
// than one label; picking the most populated one preserves the established
// grouping.
func (a *Allocator) allocateWithinGroup(identity string, members []*catalog.Candidate) Allocation {
	lettersByLabel := make(map[int]map[string]struct{})
	for _, member := range members {
		label, letter, ok := a.parseName(member.AssignedName)
		if !ok {
			continue
		}
		if lettersByLabel[label] == nil {
			lettersByLabel[label] = make(map[string]struct{})
		}
		lettersByLabel[label][letter] = struct{}{}
	}
	if len(lettersByLabel) == 0 {
		return a.fallback(identity, fmt.Errorf("no parseable names among %d group members", len(members)))
	}

	chosen := -1
	for label, letters := range lettersByLabel {
		if chosen == -1 || len(letters) > len(lettersByLabel[chosen]) ||
			(len(letters) == len(lettersByLabel[chosen]) && label < chosen) {
			chosen = label
		}
	}

	letter := nextLetter(lettersByLabel[chosen])
	return a.compose(identity, chosen, letter)
}

// allocateNewLabel starts a brand-new label one past the highest in use
// anywhere in the store. The first member of a label is always "b".
func (a *Allocator) allocateNewLabel(ctx context.Context, identity string) Allocation {
	names, err := a.store.AssignedNames(ctx)
	if err != nil {
		return a.fallback(identity, fmt.Errorf("query assigned names: %w", err))
	}

	maxLabel := 0
	for _, name := range names {
		if label, _, ok := a.parseName(name); ok && label > maxLabel {
			maxLabel = label
		}
	}
	return a.compose(identity, maxLabel+1, "b")
}

func (a *Allocator) compose(identity string, label int, letter string) Allocation {
	name := fmt.Sprintf("%s-%d %s", a.prefix, label, letter)
	a.logger.Info("designation allocated",
		logging.String(logging.FieldIdentity, identity),
		logging.String("name", name))
	return Allocation{Name: name, Label: label, Letter: letter}
}

// fallback produces a unique time-derived name. Degraded path: the name
// carries no group semantics, only uniqueness.
func (a *Allocator) fallback(identity string, cause error) Allocation {
	name := fmt.Sprintf("%s-T%d b", a.prefix, a.now().UTC().UnixNano())
	a.logger.Error("falling back to time-derived designation",
		logging.String(logging.FieldIdentity, identity),
		logging.String("name", name),
		logging.Error(cause))
	return Allocation{Name: name, Letter: "b", Fallback: true}
}

// parseName splits a designation of the form "<prefix>-<label> <letter>".
func (a *Allocator) parseName(name string) (int, string, bool) {
	rest, ok := strings.CutPrefix(name, a.prefix+"-")
	if !ok {
		return 0, "", false
	}
	labelPart, letter, ok := strings.Cut(rest, " ")
	if !ok || len(letter) != 1 || letter[0] < 'a' || letter[0] > 'z' {
		return 0, "", false
	}
	label, err := strconv.Atoi(labelPart)
	if err != nil || label <= 0 {
		return 0, "", false
	}
	return label, letter, true
}

// nextLetter returns the first unused letter in b..z. When every letter is
// taken it returns "z"; groups past 25 named members reuse the final letter.
// Known limitation rather than a hard failure.
func nextLetter(used map[string]struct{}) string {
	for c := byte('b'); c <= 'z'; c++ {
		letter := string(c)
		if _, taken := used[letter]; !taken {
			return letter
		}
	}
	return "z"
}
