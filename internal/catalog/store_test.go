package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"orrery/internal/catalog"
	"orrery/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	candidate, err := store.Insert(ctx, &catalog.Candidate{
		Identity: "K00752.01",
		Status:   catalog.StatusCandidate,
		Source:   "cumulative",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if candidate.ID == 0 {
		t.Fatal("expected candidate ID to be assigned")
	}
	if candidate.CreatedAt.IsZero() || candidate.SyncedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if _, err := reopened.Identities(context.Background()); err != nil {
		t.Fatalf("Identities after reopen failed: %v", err)
	}
}

func TestInsertEnforcesNameInvariant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	_, err := store.Insert(ctx, &catalog.Candidate{
		Identity: "K00001.01",
		Status:   catalog.StatusConfirmed,
	})
	if !errors.Is(err, catalog.ErrInvalidCandidate) {
		t.Fatalf("expected ErrInvalidCandidate for unnamed confirmed record, got %v", err)
	}

	_, err = store.Insert(ctx, &catalog.Candidate{
		Identity:     "K00001.01",
		Status:       catalog.StatusCandidate,
		AssignedName: "ORR-1 b",
	})
	if !errors.Is(err, catalog.ErrInvalidCandidate) {
		t.Fatalf("expected ErrInvalidCandidate for named non-confirmed record, got %v", err)
	}
}

func TestInsertRejectsDuplicateIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Insert(ctx, &catalog.Candidate{
		Identity: "K00002.01",
		Status:   catalog.StatusCandidate,
	}); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if _, err := store.Insert(ctx, &catalog.Candidate{
		Identity: "K00002.01",
		Status:   catalog.StatusFalsePositive,
	}); err == nil {
		t.Fatal("expected unique constraint violation for duplicate identity")
	}
}

func TestInsertRejectsDuplicateName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Insert(ctx, &catalog.Candidate{
		Identity:     "K00003.01",
		Status:       catalog.StatusConfirmed,
		AssignedName: "ORR-3 b",
	}); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if _, err := store.Insert(ctx, &catalog.Candidate{
		Identity:     "K00004.01",
		Status:       catalog.StatusConfirmed,
		AssignedName: "ORR-3 b",
	}); err == nil {
		t.Fatal("expected unique constraint violation for duplicate name")
	}
}

func TestGetByIdentityRoundTripsVerdict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := 0.12
	inserted, err := store.Insert(ctx, &catalog.Candidate{
		Identity:               "K00005.01",
		Status:                 catalog.StatusConfirmed,
		AssignedName:           "ORR-5 b",
		ClassifiedByAutomation: true,
		Verdict: &catalog.Verdict{
			Label:       "CONFIRMED",
			Probability: 0.91,
			Confidence:  0.91,
			BaseValue:   &base,
		},
		FieldsJSON: `{"identity":"K00005.01","orbital_period":3.5}`,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	fetched, err := store.GetByIdentity(ctx, "K00005.01")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if fetched == nil || fetched.ID != inserted.ID {
		t.Fatalf("unexpected fetch result: %+v", fetched)
	}
	if !fetched.ClassifiedByAutomation {
		t.Fatal("expected automation flag to persist")
	}
	if fetched.Verdict == nil || fetched.Verdict.Probability != 0.91 {
		t.Fatalf("unexpected verdict: %+v", fetched.Verdict)
	}
	if fetched.Verdict.BaseValue == nil || *fetched.Verdict.BaseValue != 0.12 {
		t.Fatalf("expected base value to round trip, got %+v", fetched.Verdict.BaseValue)
	}

	missing, err := store.GetByIdentity(ctx, "UNKNOWN.01")
	if err != nil {
		t.Fatalf("GetByIdentity for missing row failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing identity, got %+v", missing)
	}
}

func TestIdentitiesAndPrefixQueries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seed := []*catalog.Candidate{
		{Identity: "K00010.01", Status: catalog.StatusConfirmed, AssignedName: "ORR-10 b"},
		{Identity: "K00010.02", Status: catalog.StatusConfirmed, AssignedName: "ORR-10 c"},
		{Identity: "K00010.03", Status: catalog.StatusCandidate},
		{Identity: "K00011.01", Status: catalog.StatusConfirmed, AssignedName: "ORR-11 b"},
	}
	for _, candidate := range seed {
		if _, err := store.Insert(ctx, candidate); err != nil {
			t.Fatalf("Insert %s failed: %v", candidate.Identity, err)
		}
	}

	identities, err := store.Identities(ctx)
	if err != nil {
		t.Fatalf("Identities failed: %v", err)
	}
	if len(identities) != 4 {
		t.Fatalf("expected 4 identities, got %d", len(identities))
	}
	if _, ok := identities["K00010.02"]; !ok {
		t.Fatal("expected K00010.02 in identity set")
	}

	named, err := store.NamedWithIdentityPrefix(ctx, "K00010.")
	if err != nil {
		t.Fatalf("NamedWithIdentityPrefix failed: %v", err)
	}
	if len(named) != 2 {
		t.Fatalf("expected 2 named group members, got %d", len(named))
	}
	for _, candidate := range named {
		if candidate.AssignedName == "" {
			t.Fatalf("expected assigned name on %s", candidate.Identity)
		}
	}

	names, err := store.AssignedNames(ctx)
	if err != nil {
		t.Fatalf("AssignedNames failed: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 assigned names, got %d", len(names))
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seed := []*catalog.Candidate{
		{Identity: "K00020.01", Status: catalog.StatusCandidate},
		{Identity: "K00020.02", Status: catalog.StatusFalsePositive},
		{Identity: "K00020.03", Status: catalog.StatusConfirmed, AssignedName: "ORR-20 b"},
	}
	for _, candidate := range seed {
		if _, err := store.Insert(ctx, candidate); err != nil {
			t.Fatalf("Insert %s failed: %v", candidate.Identity, err)
		}
	}

	confirmed, err := store.List(ctx, catalog.StatusConfirmed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].Identity != "K00020.03" {
		t.Fatalf("unexpected confirmed list: %+v", confirmed)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(all))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[catalog.StatusCandidate] != 1 || stats[catalog.StatusConfirmed] != 1 || stats[catalog.StatusFalsePositive] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPassLogAppendAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	start := time.Now().UTC().Add(-time.Minute)
	first := &catalog.PassRecord{
		ID:         "pass-1",
		StartedAt:  start,
		FinishedAt: start.Add(10 * time.Second),
		Success:    true,
		Counts:     catalog.PassCounts{Fetched: 5, New: 2, Confirmed: 1, Candidates: 1},
	}
	second := &catalog.PassRecord{
		ID:         "pass-2",
		StartedAt:  start.Add(30 * time.Second),
		FinishedAt: start.Add(31 * time.Second),
		Success:    false,
		Message:    "archive snapshot returned 503",
		Details:    []catalog.PassError{{Identity: "K00030.01", Reason: "classifier timeout"}},
	}
	for _, record := range []*catalog.PassRecord{first, second} {
		if err := store.AppendPass(ctx, record); err != nil {
			t.Fatalf("AppendPass %s failed: %v", record.ID, err)
		}
	}

	recent, err := store.RecentPasses(ctx, 1)
	if err != nil {
		t.Fatalf("RecentPasses failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "pass-2" {
		t.Fatalf("expected newest pass first, got %+v", recent)
	}
	if len(recent[0].Details) != 1 || recent[0].Details[0].Identity != "K00030.01" {
		t.Fatalf("expected error details to round trip, got %+v", recent[0].Details)
	}

	all, err := store.RecentPasses(ctx, 0)
	if err != nil {
		t.Fatalf("RecentPasses all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(all))
	}

	last, err := store.LastPass(ctx)
	if err != nil {
		t.Fatalf("LastPass failed: %v", err)
	}
	if last == nil || last.ID != "pass-2" {
		t.Fatalf("unexpected last pass: %+v", last)
	}
	if last.Counts.Fetched != 0 {
		t.Fatalf("expected zero counters on failed pass, got %+v", last.Counts)
	}

	if got := first.Duration(); got != 10*time.Second {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestParseDisposition(t *testing.T) {
	cases := []struct {
		raw    string
		want   catalog.Status
		wantOK bool
	}{
		{"CONFIRMED", catalog.StatusConfirmed, true},
		{"confirmed", catalog.StatusConfirmed, true},
		{"Candidate", catalog.StatusCandidate, true},
		{"FALSE POSITIVE", catalog.StatusFalsePositive, true},
		{"false_positive", catalog.StatusFalsePositive, true},
		{"False-Positive", catalog.StatusFalsePositive, true},
		{"FALSEPOSITIVE", catalog.StatusFalsePositive, true},
		{"  confirmed  ", catalog.StatusConfirmed, true},
		{"refuted", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := catalog.ParseDisposition(tc.raw)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseDisposition(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestGroupBase(t *testing.T) {
	if got := catalog.GroupBase("K00752.01"); got != "K00752" {
		t.Fatalf("unexpected group base: %q", got)
	}
	if got := catalog.GroupBase("K00752"); got != "K00752" {
		t.Fatalf("expected identity without delimiter unchanged, got %q", got)
	}
}
