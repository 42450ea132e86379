package main

import (
	"github.com/tsedeniyafiseha/school-management-system/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	return migrateFunc(cli.db)
}
