package main

import (
	"fmt"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

// addUser validates and creates a user.User
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.usrSvc); err != nil {
		if fields := core.TranslateErrors(err); fields != nil {
			return fmt.Errorf("invalid user: %v", fields)
		}
		return err
	}
	usr, err := cli.usrSvc.Create(nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %s (%s)\n", usr.Role.Name(), usr.Email, usr.ID)
	return nil
}
