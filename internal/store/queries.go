package store

import (
	"strings"

	"github.com/Masterminds/squirrel"

	"jobtrail/internal/record"
)

// Table and Columns describe the job_emails schema shared by the SQL stores.
// Columns is the scan order every Select below uses.
const Table = "job_emails"

var Columns = []string{"id", "subject", "sender", "received_at", "stage", "message_id"}

// Queries builds the SQL shared by the sqlite and postgres stores. Timestamp
// arguments are passed through untouched so each store can use its own
// column encoding.
type Queries struct {
	b     squirrel.StatementBuilderType
	ilike bool
}

// FoldFunc is the SQL function the sqlite store registers to lowercase any
// Unicode text. SQLite's own lower() and LIKE only fold ASCII.
const FoldFunc = "fold_case"

// NewQueries returns builders using the given placeholder format. When ilike
// is set, search uses ILIKE (postgres); otherwise the columns go through
// FoldFunc and are matched with LIKE against a lowercased pattern.
func NewQueries(ph squirrel.PlaceholderFormat, ilike bool) Queries {
	return Queries{b: squirrel.StatementBuilder.PlaceholderFormat(ph), ilike: ilike}
}

func (q Queries) selectAll() squirrel.SelectBuilder {
	return q.b.Select(Columns...).From(Table)
}

// Insert writes one row. messageID nil stores NULL.
func (q Queries) Insert(id string, e record.Email, receivedAt, messageID any) squirrel.InsertBuilder {
	return q.b.Insert(Table).
		Columns(Columns...).
		Values(id, e.Subject, e.Sender, receivedAt, string(e.Stage), messageID)
}

func (q Queries) ByMessageID(messageID string) squirrel.SelectBuilder {
	return q.selectAll().Where(squirrel.Eq{"message_id": messageID}).Limit(1)
}

func (q Queries) ByTriple(subject, sender string, receivedAt any) squirrel.SelectBuilder {
	return q.selectAll().
		Where(squirrel.Eq{"subject": subject, "sender": sender, "received_at": receivedAt}).
		Limit(1)
}

func (q Queries) UpdateStage(id, stage string) squirrel.UpdateBuilder {
	return q.b.Update(Table).Set("stage", stage).Where(squirrel.Eq{"id": id})
}

func (q Queries) Delete(id string) squirrel.DeleteBuilder {
	return q.b.Delete(Table).Where(squirrel.Eq{"id": id})
}

// List filters by stage and subject/sender search, newest first.
func (q Queries) List(f record.Filter) squirrel.SelectBuilder {
	sel := q.selectAll()
	if f.Stage != nil {
		// Rows written with capitalized legacy labels match too.
		sel = sel.Where(squirrel.Expr("lower(stage) = ?", strings.ToLower(string(*f.Stage))))
	}
	if f.Search != "" {
		if q.ilike {
			pattern := "%" + f.Search + "%"
			sel = sel.Where(squirrel.Or{
				squirrel.ILike{"subject": pattern},
				squirrel.ILike{"sender": pattern},
			})
		} else {
			pattern := "%" + strings.ToLower(f.Search) + "%"
			sel = sel.Where(squirrel.Or{
				squirrel.Expr(FoldFunc+"(subject) LIKE ?", pattern),
				squirrel.Expr(FoldFunc+"(sender) LIKE ?", pattern),
			})
		}
	}
	return sel.OrderBy("received_at DESC", "id")
}

func (q Queries) CountByStage() squirrel.SelectBuilder {
	return q.b.Select("stage", "COUNT(*)").From(Table).GroupBy("stage")
}

func (q Queries) CountSince(since any) squirrel.SelectBuilder {
	return q.b.Select("COUNT(*)").From(Table).Where(squirrel.GtOrEq{"received_at": since})
}
