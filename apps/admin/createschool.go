package main

import (
	"context"
	"fmt"

	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

// createSchool registers a school along with its owning admin account.
func (cli *commandLine) createSchool(schoolName, adminName, email, pwd string) error {
	data := roster.NewAdmin{
		Name:       adminName,
		Email:      email,
		Password:   pwd,
		SchoolName: schoolName,
	}
	if err := data.Validate(); err != nil {
		return err
	}

	admin, _, err := cli.rosterSvc.RegisterAdmin(context.Background(), data)
	if err != nil {
		return err
	}
	fmt.Printf("school %q created; admin ID: %s\n", admin.SchoolName, admin.ID)
	return nil
}
