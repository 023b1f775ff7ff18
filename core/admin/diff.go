package admin

import (
	"context"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

// Mutable user-table fields. The name column identifies the row and is never
// part of a diff.
const (
	FieldActive = "is_active"
	FieldAdmin  = "admin"
)

// FieldChange is one cell of the user table that differs from the baseline
// snapshot.
type FieldChange struct {
	Name  string
	Field string
	Value bool
}

// SyncResult is the outcome of replaying one FieldChange against the API.
type SyncResult struct {
	Change FieldChange
	Err    error
}

// DiffUsers compares the edited rows against the baseline snapshot, aligned
// by position. Rows beyond the shorter collection are ignored, as is any pair
// whose names disagree: the table is edit-in-place, so both sides always have
// the same shape in practice, and a mismatched name means the row no longer
// describes the same account. When both mutable fields changed on one row,
// both changes are emitted; the two fields are independent and carry no
// ordering dependency.
func DiffUsers(baseline, edited []core.UserRow) []FieldChange {
	n := len(baseline)
	if len(edited) < n {
		n = len(edited)
	}

	var changes []FieldChange
	for i := 0; i < n; i++ {
		before, after := baseline[i], edited[i]
		if before.Name != after.Name {
			continue
		}
		if before.IsActive != after.IsActive {
			changes = append(changes, FieldChange{Name: before.Name, Field: FieldActive, Value: after.IsActive})
		}
		if before.Admin != after.Admin {
			changes = append(changes, FieldChange{Name: before.Name, Field: FieldAdmin, Value: after.Admin})
		}
	}
	return changes
}

// SyncUsers replays every changed cell of the edited user table as one
// targeted update call per field. A failed call neither rolls back nor
// blocks the remaining calls; each failure is reported in its SyncResult.
// The session baseline is advanced to the edited collection and the
// reference cache invalidated regardless of individual outcomes, so there is
// no transactional guarantee across the batch: a row whose call failed keeps
// its edited value locally until the next fetch.
func (svc *Service) SyncUsers(ctx context.Context, sess *session.Session, edited []core.UserRow) []SyncResult {
	creds, err := credentials(sess)
	if err != nil {
		return []SyncResult{{Err: err}}
	}

	changes := DiffUsers(sess.UserBaseline, edited)
	results := make([]SyncResult, 0, len(changes))
	for _, change := range changes {
		var err error
		switch change.Field {
		case FieldActive:
			err = svc.backend.UpdateUserActive(ctx, creds, change.Name, change.Value)
		case FieldAdmin:
			err = svc.backend.UpdateUserAdmin(ctx, creds, change.Name, change.Value)
		}
		if err != nil {
			svc.logger.Error("user sync: update failed", err, map[string]interface{}{
				"user": change.Name, "field": change.Field,
			})
		}
		results = append(results, SyncResult{Change: change, Err: err})
	}

	sess.UserBaseline = edited
	svc.cache.Invalidate()
	return results
}
