package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/mundesk/mundesk/pkg/identity"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [PASSWORD]",
	Short: "Hash a password for the admin.password_hash setting",
	Long:  "Hash a password for the admin.password_hash setting. The password is read from stdin when it is not given as an argument.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) > 0 {
			password = args[0]
		} else {
			s := bufio.NewScanner(cmd.InOrStdin())
			if s.Scan() {
				password = s.Text()
			}
			if err := s.Err(); err != nil {
				return err
			}
		}

		password = strings.TrimRight(password, "\r\n")
		if password == "" {
			return errors.New("password is required")
		}

		hash, err := identity.HashPassword(password)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
