package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.provider.ResetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	fmt.Printf("password reset for %s\n", email)
	return nil
}
