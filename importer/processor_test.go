package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func row(values map[string]string) Record {
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		normalized[NormalizeHeader(key)] = value
	}
	return Record{RowNumber: 2, Values: normalized}
}

func validRow() map[string]string {
	return map[string]string{
		"username":      "alice",
		"subject":       "Report",
		"description":   "Quarterly numbers",
		"dateWorked":    "2024-05-01",
		"minutesWorked": "90",
	}
}

func with(values map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(values)+1)
	for k, v := range values {
		out[k] = v
	}
	out[key] = value
	return out
}

func without(values map[string]string, key string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func TestProcessor_ImportsValidRow(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "", false)

	outcome := processor.Process(context.Background(), row(validRow()))
	if outcome.Kind != OutcomeImported {
		t.Fatalf("expected imported, got %v (%s)", outcome.Kind, outcome.Reason)
	}
	if outcome.EntryID <= 0 {
		t.Fatalf("expected entry id, got %d", outcome.EntryID)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(store.entries))
	}

	entry := store.entries[0]
	if entry.OwnerID != store.owners["alice"].ID || entry.Subject != "Report" || entry.Description != "Quarterly numbers" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.MinutesWorked != 90 || entry.DateKey() != "2024-05-01" {
		t.Fatalf("unexpected date/minutes: %+v", entry)
	}
	midnight := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	if !entry.CreatedAt.Equal(midnight) || !entry.UpdatedAt.Equal(midnight) {
		t.Fatalf("expected timestamps to default to local midnight, got created=%v updated=%v", entry.CreatedAt, entry.UpdatedAt)
	}
}

func TestProcessor_SkipReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]string
		reason string
	}{
		{name: "no owner", values: without(validRow(), "username"), reason: ReasonMissingOwner},
		{name: "blank owner", values: with(validRow(), "username", "  "), reason: ReasonMissingOwner},
		{name: "no subject", values: without(validRow(), "subject"), reason: ReasonMissingSubject},
		{name: "blank subject", values: with(validRow(), "subject", "   "), reason: ReasonMissingSubject},
		{name: "no date", values: without(validRow(), "dateWorked"), reason: ReasonInvalidDate},
		{name: "bad date", values: with(validRow(), "dateWorked", "2024/13/45"), reason: ReasonInvalidDate},
		{name: "no minutes", values: without(validRow(), "minutesWorked"), reason: ReasonInvalidMinutes},
		{name: "zero minutes", values: with(validRow(), "minutesWorked", "0"), reason: ReasonInvalidMinutes},
		{name: "negative minutes", values: with(validRow(), "minutesWorked", "-10"), reason: ReasonInvalidMinutes},
		{name: "text minutes", values: with(validRow(), "minutesWorked", "ninety"), reason: ReasonInvalidMinutes},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newMemoryStore()
			outcome := NewProcessor(store, store, "", false).Process(context.Background(), row(tc.values))
			if outcome.Kind != OutcomeSkipped {
				t.Fatalf("expected skipped, got %v", outcome.Kind)
			}
			if outcome.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, outcome.Reason)
			}
			if len(store.entries) != 0 {
				t.Fatalf("skipped rows must not be stored")
			}
		})
	}
}

func TestProcessor_DefaultUsernameFillsMissingOwner(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "fallback", false)

	if outcome := processor.Process(context.Background(), row(without(validRow(), "username"))); outcome.Kind != OutcomeImported {
		t.Fatalf("expected import with default owner, got %v (%s)", outcome.Kind, outcome.Reason)
	}
	if outcome := processor.Process(context.Background(), row(with(validRow(), "subject", "Other"))); outcome.Kind != OutcomeImported {
		t.Fatalf("expected import with row owner, got %v (%s)", outcome.Kind, outcome.Reason)
	}

	if _, ok := store.owners["fallback"]; !ok {
		t.Fatalf("expected default owner to be created")
	}
	if _, ok := store.owners["alice"]; !ok {
		t.Fatalf("expected row owner alice to win over the default")
	}
}

func TestProcessor_OwnerAliasesAndCreation(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "", false)

	values := without(validRow(), "username")
	values["E-Mail"] = "carol@example.com"
	if outcome := processor.Process(context.Background(), row(values)); outcome.Kind != OutcomeImported {
		t.Fatalf("expected imported, got %v (%s)", outcome.Kind, outcome.Reason)
	}

	owner, ok := store.owners["carol@example.com"]
	if !ok {
		t.Fatalf("expected owner created from email column")
	}
	if owner.PasswordHash == "" {
		t.Fatalf("expected placeholder credential hash")
	}
}

func TestProcessor_CreatesOwnerOnceAndReusesIt(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "", false)

	processor.Process(context.Background(), row(validRow()))
	processor.Process(context.Background(), row(with(validRow(), "subject", "Second")))

	if len(store.createdOwners) != 1 {
		t.Fatalf("expected owner to be created once, got %v", store.createdOwners)
	}
	if store.entries[0].OwnerID != store.entries[1].OwnerID {
		t.Fatalf("expected both entries on the same owner")
	}
}

func TestProcessor_OwnerCreatedEvenWhenRowIsSkippedLater(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()

	outcome := NewProcessor(store, store, "", false).Process(context.Background(), row(without(validRow(), "subject")))
	if outcome.Kind != OutcomeSkipped {
		t.Fatalf("expected skip, got %v", outcome.Kind)
	}
	if _, ok := store.owners["alice"]; !ok {
		t.Fatalf("expected owner creation to stay in place for a skipped row")
	}
}

func TestProcessor_DescriptionAndTimestampAliases(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()

	values := map[string]string{
		"User":         "alice",
		"Betreff":      "Planung",
		"Beschreibung": "Sprint",
		"Datum":        "01.05.2024",
		"Dauer":        "45",
		"Erstellt am":  "2024-05-01T09:00:00Z",
		"Modified":     "2024-05-03T09:00:00Z",
	}
	outcome := NewProcessor(store, store, "", false).Process(context.Background(), row(values))
	if outcome.Kind != OutcomeImported {
		t.Fatalf("expected imported, got %v (%s)", outcome.Kind, outcome.Reason)
	}

	entry := store.entries[0]
	if entry.Subject != "Planung" || entry.Description != "Sprint" || entry.MinutesWorked != 45 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.CreatedAt.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created_at: %v", entry.CreatedAt)
	}
	if !entry.UpdatedAt.Equal(time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updated_at: %v", entry.UpdatedAt)
	}
}

func TestProcessor_UpdatedDefaultsToCreated(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()

	values := with(validRow(), "createdAt", "2024-05-01T07:30:00")
	NewProcessor(store, store, "", false).Process(context.Background(), row(values))

	entry := store.entries[0]
	want := time.Date(2024, 5, 1, 7, 30, 0, 0, time.Local)
	if !entry.CreatedAt.Equal(want) || !entry.UpdatedAt.Equal(want) {
		t.Fatalf("expected created and updated at %v, got %v / %v", want, entry.CreatedAt, entry.UpdatedAt)
	}
}

func TestProcessor_DuplicateIsExactMatchOnly(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "", false)

	if outcome := processor.Process(context.Background(), row(validRow())); outcome.Kind != OutcomeImported {
		t.Fatalf("expected first row imported, got %v", outcome.Kind)
	}
	if outcome := processor.Process(context.Background(), row(with(validRow(), "description", "different text"))); outcome.Reason != ReasonDuplicate {
		t.Fatalf("expected duplicate skip regardless of description, got %v (%s)", outcome.Kind, outcome.Reason)
	}

	variants := []map[string]string{
		with(validRow(), "username", "bob"),
		with(validRow(), "subject", "Report v2"),
		with(validRow(), "dateWorked", "2024-05-02"),
		with(validRow(), "minutesWorked", "91"),
	}
	for i, values := range variants {
		if outcome := processor.Process(context.Background(), row(values)); outcome.Kind != OutcomeImported {
			t.Fatalf("variant %d: expected imported, got %v (%s)", i, outcome.Kind, outcome.Reason)
		}
	}
}

func TestProcessor_DryRunWritesNothingAndCreatesNoOwner(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "", true)

	outcome := processor.Process(context.Background(), row(validRow()))
	if outcome.Kind != OutcomeImported || outcome.EntryID != 0 {
		t.Fatalf("expected dry-run import without id, got %+v", outcome)
	}
	if len(store.entries) != 0 {
		t.Fatalf("dry-run must not store entries")
	}
	if len(store.createdOwners) != 0 {
		t.Fatalf("dry-run must not create owners, got %v", store.createdOwners)
	}

	if outcome := processor.Process(context.Background(), row(validRow())); outcome.Reason != ReasonDuplicate {
		t.Fatalf("expected repeated row in dry-run to be a duplicate, got %v (%s)", outcome.Kind, outcome.Reason)
	}
}

func TestProcessor_DryRunSeesExistingEntries(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()

	NewProcessor(store, store, "", false).Process(context.Background(), row(validRow()))
	outcome := NewProcessor(store, store, "", true).Process(context.Background(), row(validRow()))
	if outcome.Reason != ReasonDuplicate {
		t.Fatalf("expected dry-run to detect stored duplicate, got %v (%s)", outcome.Kind, outcome.Reason)
	}
}

func TestProcessor_StorageFailuresAreErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk on fire")

	tests := []struct {
		name  string
		setup func(*memoryStore)
	}{
		{name: "find owner", setup: func(s *memoryStore) { s.findErr = boom }},
		{name: "create owner", setup: func(s *memoryStore) { s.createErr = boom }},
		{name: "exists", setup: func(s *memoryStore) { s.existsErr = boom }},
		{name: "insert", setup: func(s *memoryStore) { s.insertErr = boom }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newMemoryStore()
			tc.setup(store)

			outcome := NewProcessor(store, store, "", false).Process(context.Background(), row(validRow()))
			if outcome.Kind != OutcomeErrored {
				t.Fatalf("expected errored, got %v", outcome.Kind)
			}
			if !errors.Is(outcome.Err, boom) {
				t.Fatalf("expected wrapped storage error, got %v", outcome.Err)
			}
		})
	}
}

func TestProcessor_OverlongSubjectIsErrorInBothModes(t *testing.T) {
	t.Parallel()
	values := with(validRow(), "subject", strings.Repeat("x", 201))

	for _, dryRun := range []bool{false, true} {
		store := newMemoryStore()
		processor := NewProcessor(store, store, "", dryRun)

		outcome := processor.Process(context.Background(), row(values))
		if outcome.Kind != OutcomeErrored {
			t.Fatalf("dryRun=%v: expected errored, got %v (%s)", dryRun, outcome.Kind, outcome.Reason)
		}
		if !strings.Contains(outcome.Reason, "Subject") {
			t.Fatalf("dryRun=%v: expected subject validation reason, got %q", dryRun, outcome.Reason)
		}
		if len(store.entries) != 0 {
			t.Fatalf("dryRun=%v: expected no stored entry, got %d", dryRun, len(store.entries))
		}
	}
}

func TestProcessor_RecoversPanics(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	store.panicForSubject = "Report"

	outcome := NewProcessor(store, store, "", false).Process(context.Background(), row(validRow()))
	if outcome.Kind != OutcomeErrored {
		t.Fatalf("expected panic to become an error, got %v", outcome.Kind)
	}
}

func TestProcessor_CredentialFailureIsError(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	processor := NewProcessor(store, store, "", false)
	processor.hashPassword = func() (string, error) { return "", errors.New("no entropy") }

	if outcome := processor.Process(context.Background(), row(validRow())); outcome.Kind != OutcomeErrored {
		t.Fatalf("expected errored, got %v", outcome.Kind)
	}
	if len(store.createdOwners) != 0 {
		t.Fatalf("expected no owner without a credential")
	}
}

func TestOutcomeKind_String(t *testing.T) {
	t.Parallel()
	if OutcomeImported.String() != "imported" || OutcomeSkipped.String() != "skipped" || OutcomeErrored.String() != "errored" {
		t.Fatalf("unexpected outcome names")
	}
}
