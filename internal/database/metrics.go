package database

import (
	"time"

	"project-tracker/backend/internal/monitoring"

	"gorm.io/gorm"
)

const startedAtKey = "metrics:started_at"

// registerMetrics times every gorm statement into the query duration histogram.
func registerMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
	}

	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			started, ok := v.(time.Time)
			if !ok {
				return
			}
			monitoring.RecordDBQueryDuration(operation, tx.Statement.Table, time.Since(started))
		}
	}

	cb := db.Callback()
	steps := []struct {
		name      string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
		operation string
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "create"},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "query"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "update"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "delete"},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "raw"},
	}

	for _, s := range steps {
		if err := s.before("metrics:before_"+s.name, before); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.name, after(s.operation)); err != nil {
			return err
		}
	}
	return nil
}
