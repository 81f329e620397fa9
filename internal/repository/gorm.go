package repository

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewGormStore wires the relational repositories over db.
func NewGormStore(db *gorm.DB) *Store {
	s := newGormStore(db)
	s.Atomic = func(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, newGormStore(tx))
		})
	}
	return s
}

func newGormStore(db *gorm.DB) *Store {
	return &Store{
		Threads:     NewThreadRepository(db),
		Users:       NewUserRepository(db),
		Communities: NewCommunityRepository(db),
	}
}

// inTx reuses an open transaction instead of nesting a savepoint.
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if _, ok := db.Statement.ConnPool.(gorm.TxCommitter); ok {
		return fn(db.WithContext(ctx))
	}
	return db.WithContext(ctx).Transaction(fn)
}

// forUpdate row-locks on postgres; sqlite locks the whole database on write anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// editList loads row by id, applies edit to the list returned by field and
// writes column back when the list changed.
func editList(ctx context.Context, db *gorm.DB, row any, id, column, resource string, field func() *[]string, edit func([]string) []string) error {
	return inTx(ctx, db, func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", id).First(row).Error; err != nil {
			return translateError(err, resource, id)
		}
		list := field()
		next := edit(*list)
		if slices.Equal(*list, next) {
			return nil
		}
		*list = next
		return translateError(tx.Model(row).Select(column).Updates(row).Error, resource, id)
	})
}

func appendUnique(id string) func([]string) []string {
	return func(list []string) []string {
		if slices.Contains(list, id) {
			return list
		}
		return append(slices.Clone(list), id)
	}
}

func without(ids []string) func([]string) []string {
	return func(list []string) []string {
		kept := make([]string, 0, len(list))
		for _, v := range list {
			if !slices.Contains(ids, v) {
				kept = append(kept, v)
			}
		}
		return kept
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a LIKE pattern matching term literally anywhere.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// applySearch adds the name/username filter, the exclusion and the sort of q.
func applySearch(db *gorm.DB, q SearchQuery) *gorm.DB {
	if q.ExcludeExternalID != "" {
		db = db.Where("external_id <> ?", q.ExcludeExternalID)
	}
	if term := strings.TrimSpace(q.Term); term != "" {
		p := likePattern(term)
		db = db.Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, p, p)
	}
	return db
}

func orderCreated(ascending bool) string {
	if ascending {
		return "created_at asc"
	}
	return "created_at desc"
}
