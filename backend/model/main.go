package model

import (
	"fmt"

	"formbase/backend/common"

	"github.com/burugo/thing"
	"github.com/burugo/thing/drivers/db/sqlite"
)

// InitDB configures the Thing ORM against SQLite, migrates the schema and
// initializes the per-model ORM handles. Tests point common.SQLitePath at
// ":memory:" before calling this.
func InitDB() error {
	dbAdapter, err := sqlite.NewSQLiteAdapter(common.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database at %s: %w", common.SQLitePath, err)
	}
	if err := thing.Configure(dbAdapter, nil); err != nil {
		return fmt.Errorf("failed to configure ORM: %w", err)
	}
	if err := thing.AutoMigrate(&User{}, &Option{}, &File{}, &Form{}, &Submission{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	inits := []func() error{UserInit, OptionInit, FileInit, FormInit, SubmissionInit}
	for _, initFn := range inits {
		if err := initFn(); err != nil {
			return err
		}
	}
	if err := InitOptionMap(); err != nil {
		return err
	}
	common.SysLog("database initialized: " + common.SQLitePath)
	return nil
}

// CloseDB releases the ORM's underlying handles.
func CloseDB() error {
	thing.GlobalCleanup()
	return nil
}
