package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aedmark/shellos/pkg/commands"
)

// ensureAccount runs the first-time setup wizard when no users exist yet,
// then resolves which username the session should boot as: "Guest" when it
// is the only registered account, otherwise the first non-root account the
// user map yields (map order, so not a fixed choice when several exist),
// and "root" when no other account exists.
func ensureAccount(sys *commands.System) (string, error) {
	users := sys.Identity.Users.AllUsers()
	if len(users) > 0 {
		if _, ok := users["Guest"]; ok && len(users) == 1 {
			return "Guest", nil
		}
		for name := range users {
			if name != "root" {
				return name, nil
			}
		}
		return "root", nil
	}

	fmt.Println("Welcome to shellos. No account exists yet; let's create one.")
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Choose a username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	userPassword, err := readHiddenPassword("Choose a password: ")
	if err != nil {
		return "", err
	}
	rootPassword, err := readHiddenPassword("Set the root password: ")
	if err != nil {
		return "", err
	}

	if err := sys.Identity.FirstTimeSetup(username, userPassword, rootPassword); err != nil {
		return "", err
	}
	if err := saveIdentity(sys); err != nil {
		return "", err
	}
	return username, nil
}

func readHiddenPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
