package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	rosterSvc roster.Service
	provider  auth.PasswordResetter
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  createschool -school NAME -name ADMIN_NAME -email EMAIL - register a school and its admin; the password will be prompted")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password; the new password will be prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSchoolCmd := flag.NewFlagSet("createschool", flag.ExitOnError)
	createSchoolName := createSchoolCmd.String("school", "", "The school's name.")
	createAdminName := createSchoolCmd.String("name", "", "The admin's full name.")
	createAdminEmail := createSchoolCmd.String("email", "", "The admin's email address.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetEmail := resetPasswordCmd.String("email", "", "The account's email address.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "createschool":
		if err := createSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createSchoolName == "" || *createAdminName == "" || *createAdminEmail == "" {
			createSchoolCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createSchoolCmd.Usage()
			return errHelp
		}
		return cli.createSchool(*createSchoolName, *createAdminName, *createAdminEmail, string(pwd))
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter new password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetEmail, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
