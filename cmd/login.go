package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/campusdesk/campusdesk/internal/credstore"
)

// EnvToken lets scripts pass the portal token without a prompt.
const EnvToken = "CAMPUSDESK_TOKEN"

func login(ctx *cli.Context) error {
	token := os.Getenv(EnvToken)
	if token == "" {
		fmt.Print("portal access token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			printRuntimeErr(ctx, "login", "read_token", err)
			return nil
		}
		token = strings.TrimSpace(line)
	}
	if err := credstore.New().Save(token); err != nil {
		printRuntimeErr(ctx, "login", "save_token", err)
		return nil
	}
	fmt.Println("token stored")
	return nil
}

func logout(ctx *cli.Context) error {
	if err := credstore.New().Delete(); err != nil {
		printRuntimeErr(ctx, "logout", "delete_token", err)
		return nil
	}
	fmt.Println("token removed")
	return nil
}
