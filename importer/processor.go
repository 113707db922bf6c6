package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"timetrack/account"
	"timetrack/internal/timeutil"
	"timetrack/worklog"
)

// OwnerStore resolves and creates the accounts entries belong to.
type OwnerStore interface {
	FindOwnerByUsername(ctx context.Context, username string) (account.Owner, bool, error)
	CreateOwner(ctx context.Context, username, passwordHash string) (account.Owner, error)
}

// EntryStore is the record storage the importer writes to.
type EntryStore interface {
	EntryExists(ctx context.Context, ownerID int64, subject string, dateWorked time.Time, minutes int) (bool, error)
	InsertEntry(ctx context.Context, entry worklog.Entry) (int64, error)
}

var entryValidator = validator.New()

type OutcomeKind int

const (
	OutcomeImported OutcomeKind = iota
	OutcomeSkipped
	OutcomeErrored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeImported:
		return "imported"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeErrored:
		return "errored"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Skip reasons reported for rows that carry bad or redundant data.
const (
	ReasonMissingOwner   = "missing username and no default username provided"
	ReasonMissingSubject = "missing subject"
	ReasonInvalidDate    = "invalid/missing dateWorked"
	ReasonInvalidMinutes = "invalid minutesWorked"
	ReasonDuplicate      = "duplicate entry"
)

// RowOutcome is the decision taken for one row. EntryID is set for rows
// that were written; dry-run imports leave it at zero.
type RowOutcome struct {
	Kind    OutcomeKind
	Reason  string
	Err     error
	EntryID int64
}

func importedRow(id int64) RowOutcome {
	return RowOutcome{Kind: OutcomeImported, EntryID: id}
}

func skippedRow(reason string) RowOutcome {
	return RowOutcome{Kind: OutcomeSkipped, Reason: reason}
}

func erroredRow(err error) RowOutcome {
	return RowOutcome{Kind: OutcomeErrored, Reason: err.Error(), Err: err}
}

type dedupKey struct {
	owner   string
	subject string
	date    string
	minutes int
}

// Processor turns normalized rows into stored entries. One Processor serves
// exactly one run: it caches owners by username and, in dry-run, remembers
// the entries it would have written so repeated rows are still detected.
type Processor struct {
	owners          OwnerStore
	entries         EntryStore
	defaultUsername string
	dryRun          bool
	hashPassword    func() (string, error)

	ownerCache map[string]account.Owner
	pending    map[dedupKey]struct{}
}

func NewProcessor(owners OwnerStore, entries EntryStore, defaultUsername string, dryRun bool) *Processor {
	return &Processor{
		owners:          owners,
		entries:         entries,
		defaultUsername: defaultUsername,
		dryRun:          dryRun,
		hashPassword:    account.PlaceholderHash,
		ownerCache:      make(map[string]account.Owner),
		pending:         make(map[dedupKey]struct{}),
	}
}

// Process validates, coerces, deduplicates and stores one row. It never
// returns an error: unexpected failures, including panics from a
// collaborator, become an OutcomeErrored result.
func (p *Processor) Process(ctx context.Context, record Record) (outcome RowOutcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = erroredRow(fmt.Errorf("unexpected failure: %v", recovered))
		}
	}()

	username, ok := record.FirstNonBlank(OwnerAliases...)
	if !ok {
		username = strings.TrimSpace(p.defaultUsername)
	}
	if username == "" {
		return skippedRow(ReasonMissingOwner)
	}

	owner, err := p.resolveOwner(ctx, username)
	if err != nil {
		return erroredRow(err)
	}

	subject, ok := record.FirstNonBlank(SubjectAliases...)
	if !ok {
		return skippedRow(ReasonMissingSubject)
	}
	description := record.Get(DescriptionAliases...)

	dateWorked, ok := ParseDate(record.Get(DateAliases...))
	if !ok {
		return skippedRow(ReasonInvalidDate)
	}

	minutes, ok := ParseMinutes(record.Get(MinutesAliases...))
	if !ok || minutes <= 0 {
		return skippedRow(ReasonInvalidMinutes)
	}

	createdAt, ok := ParseInstant(record.Get(CreatedAliases...))
	if !ok {
		createdAt = timeutil.LocalMidnight(dateWorked)
	}
	updatedAt, ok := ParseInstant(record.Get(UpdatedAliases...))
	if !ok {
		updatedAt = createdAt
	}

	key := dedupKey{owner: owner.Username, subject: subject, date: dateWorked.Format(worklog.DateLayout), minutes: minutes}
	duplicate, err := p.isDuplicate(ctx, owner, key, dateWorked)
	if err != nil {
		return erroredRow(err)
	}
	if duplicate {
		return skippedRow(ReasonDuplicate)
	}

	entry := worklog.Entry{
		OwnerID:       owner.ID,
		Subject:       subject,
		Description:   description,
		DateWorked:    dateWorked,
		MinutesWorked: minutes,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if err := validateEntry(entry, p.dryRun); err != nil {
		return erroredRow(err)
	}

	if p.dryRun {
		p.pending[key] = struct{}{}
		return importedRow(0)
	}

	id, err := p.entries.InsertEntry(ctx, entry)
	if err != nil {
		return erroredRow(fmt.Errorf("store entry: %w", err))
	}
	return importedRow(id)
}

// resolveOwner finds the owner by exact username or creates it with a
// placeholder credential. Dry runs never create owners; an unknown owner is
// returned with ID 0 and by definition has no stored entries.
func (p *Processor) resolveOwner(ctx context.Context, username string) (account.Owner, error) {
	if owner, ok := p.ownerCache[username]; ok {
		return owner, nil
	}

	owner, found, err := p.owners.FindOwnerByUsername(ctx, username)
	if err != nil {
		return account.Owner{}, fmt.Errorf("find owner %q: %w", username, err)
	}

	if !found {
		if p.dryRun {
			owner = account.Owner{Username: username, Role: account.RoleUser}
		} else {
			hash, err := p.hashPassword()
			if err != nil {
				return account.Owner{}, fmt.Errorf("create owner %q: %w", username, err)
			}
			owner, err = p.owners.CreateOwner(ctx, username, hash)
			if err != nil {
				return account.Owner{}, fmt.Errorf("create owner %q: %w", username, err)
			}
		}
	}

	p.ownerCache[username] = owner
	return owner, nil
}

// validateEntry applies the entry's field rules. A dry-run owner that
// would be created has no id yet, so the owner rule is skipped for it.
func validateEntry(entry worklog.Entry, dryRun bool) error {
	var err error
	if dryRun && entry.OwnerID == 0 {
		err = entryValidator.StructExcept(entry, "OwnerID")
	} else {
		err = entryValidator.Struct(entry)
	}
	if err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}
	return nil
}

func (p *Processor) isDuplicate(ctx context.Context, owner account.Owner, key dedupKey, dateWorked time.Time) (bool, error) {
	if _, ok := p.pending[key]; ok {
		return true, nil
	}
	if owner.ID == 0 {
		return false, nil
	}
	exists, err := p.entries.EntryExists(ctx, owner.ID, key.subject, dateWorked, key.minutes)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}
