package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/maendeleo/core/progress"
	"github.com/trezcool/maendeleo/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc  user.ServiceInterface
	progSvc progress.ServiceInterface
	migrate func() error
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                                       - run database migrations")
	fmt.Println("  adduser -name NAME -username USERNAME|-email EMAIL [-roles ROLE,...] - create a user")
	fmt.Println("  seedprogress -student STUDENT_ID              - assign the default curriculum to a student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRoles := addUserCmd.String("roles", "", "Comma-separated roles. Defaults to student.")

	seedCmd := flag.NewFlagSet("seedprogress", flag.ExitOnError)
	seedStudent := seedCmd.String("student", "", "The student's ID.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || (*addUserUname == "" && *addUserEmail == "") {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserRoles, string(pwd))
	case "seedprogress":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedStudent == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seedProgress(*seedStudent)
	default:
		cli.printUsage()
		return errHelp
	}
}
