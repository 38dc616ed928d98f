package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/plantfolk/plantkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for credentials and creates a remote account. The
// password bytes are wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.remote.Register(ctx, userName, string(password)); err != nil {
		return err
	}

	fmt.Println("Account created, now log in.")
	return nil
}

// Login prompts for credentials, authenticates against the mirror server,
// and persists the session so later runs stay signed in.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.remote.Login(ctx, userName, string(password)); err != nil {
		return err
	}

	a.userName = userName
	a.saveSession(ctx)
	a.setMode(ctx, ModeOnline)
	fmt.Println("Success!")
	return nil
}

// Logout drops the in-memory and persisted session.
func (a *App) Logout(ctx context.Context) error {
	a.remote.SetTokens("", "")
	a.remote.SetUserID("")
	a.userName = ""
	if err := a.store.WriteString(ctx, common.KeySession, ""); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
