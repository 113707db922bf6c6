package importer

import (
	"context"
	"time"

	"timetrack/account"
	"timetrack/worklog"
)

// memoryStore is an in-memory Store with switchable failures.
type memoryStore struct {
	owners  map[string]account.Owner
	entries []worklog.Entry

	createdOwners []string
	syncCalls     [][]int64

	findErr   error
	createErr error
	existsErr error
	insertErr error
	syncErr   error

	failInsertForSubject string
	panicForSubject      string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{owners: make(map[string]account.Owner)}
}

func (s *memoryStore) FindOwnerByUsername(_ context.Context, username string) (account.Owner, bool, error) {
	if s.findErr != nil {
		return account.Owner{}, false, s.findErr
	}
	owner, ok := s.owners[username]
	return owner, ok, nil
}

func (s *memoryStore) CreateOwner(_ context.Context, username, passwordHash string) (account.Owner, error) {
	if s.createErr != nil {
		return account.Owner{}, s.createErr
	}
	owner := account.Owner{
		ID:           int64(len(s.owners) + 1),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         account.RoleUser,
	}
	s.owners[username] = owner
	s.createdOwners = append(s.createdOwners, username)
	return owner, nil
}

func (s *memoryStore) EntryExists(_ context.Context, ownerID int64, subject string, dateWorked time.Time, minutes int) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	for _, entry := range s.entries {
		if entry.OwnerID == ownerID &&
			entry.Subject == subject &&
			entry.DateKey() == dateWorked.Format(worklog.DateLayout) &&
			entry.MinutesWorked == minutes {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) InsertEntry(_ context.Context, entry worklog.Entry) (int64, error) {
	if s.panicForSubject != "" && entry.Subject == s.panicForSubject {
		panic("storage exploded")
	}
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	if s.failInsertForSubject != "" && entry.Subject == s.failInsertForSubject {
		return 0, context.DeadlineExceeded
	}
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *memoryStore) SyncUpdatedAtToCreatedAt(_ context.Context, ids []int64) (int, error) {
	s.syncCalls = append(s.syncCalls, append([]int64(nil), ids...))
	if s.syncErr != nil {
		return 0, s.syncErr
	}
	synced := 0
	for i := range s.entries {
		for _, id := range ids {
			if s.entries[i].ID == id {
				s.entries[i].UpdatedAt = s.entries[i].CreatedAt
				synced++
			}
		}
	}
	return synced, nil
}
