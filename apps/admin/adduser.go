package main

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/user"
)

var validate *validator.Validate

// addUser creates a user.User after running the full validation pipeline.
func (cli *commandLine) addUser(name, uname, email, rolesCSV, pwd string) error {
	roles := make([]string, 0)
	for _, role := range strings.Split(rolesCSV, ",") {
		if role = core.CleanString(role, true /* lower */); role != "" {
			roles = append(roles, role)
		}
	}

	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
	}
	if err := nu.Validate(validate, cli.usrSvc); err != nil {
		return err
	}

	_, err := cli.usrSvc.Create(context.Background(), nu)
	return err
}
