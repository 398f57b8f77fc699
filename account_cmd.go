package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/relay"
	"github.com/lockbookgo/lbcore/internal/syncengine"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the local account",
	}

	cmd.AddCommand(newAccountNewCmd())
	cmd.AddCommand(newAccountImportCmd())
	cmd.AddCommand(newAccountExportCmd())
	cmd.AddCommand(newAccountInfoCmd())

	return cmd
}

func newAccountNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <username>",
		Short: "Create a new account and register it with the relay server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountNew(cmd, args[0])
		},
	}
}

func runAccountNew(cmd *cobra.Command, username string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	if _, err := cc.Store.LoadAccount(); err == nil {
		return model.New(model.ErrAccountExists, username)
	}

	acct, err := model.NewAccount(username, cc.Cfg.Account.APIURL)
	if err != nil {
		return err
	}

	pub, err := acct.PublicKey()
	if err != nil {
		return err
	}

	rootKey, err := crypto.NewSymKey()
	if err != nil {
		return err
	}
	wrappedRootKey, err := crypto.EncryptFor(acct.Seed, pub, rootKey[:])
	if err != nil {
		return err
	}
	encName, err := crypto.EncryptSym(rootKey, []byte(username))
	if err != nil {
		return err
	}

	rootID := uuid.New()
	root := model.FileMetadata{
		ID: rootID, Parent: rootID, FileType: model.Folder, Owner: pub,
		EncryptedName: encName,
		UserAccessKeys: map[string]model.UserAccessKey{
			pub.String(): {EncryptedKey: wrappedRootKey, Mode: model.Owner},
		},
	}
	signedRoot, err := model.SignFile(root, acct.Seed, time.Now())
	if err != nil {
		return err
	}

	rc, err := relay.NewClient(acct.APIURL, defaultHTTPClient(), acct.Seed, cc.Logger)
	if err != nil {
		return fmt.Errorf("building relay client: %w", err)
	}
	if err := rc.NewAccount(ctx, username, pub, signedRoot); err != nil {
		return fmt.Errorf("registering account with relay server: %w", err)
	}

	if err := cc.Store.SaveAccount(*acct); err != nil {
		return fmt.Errorf("saving account locally: %w", err)
	}
	if err := cc.Store.UpsertLocal(signedRoot); err != nil {
		return fmt.Errorf("recording root folder: %w", err)
	}

	kc, _, engine, err := cc.Account(ctx)
	if err != nil {
		return err
	}
	kc.CacheUsername(pub, username)

	if _, err := engine.Sync(ctx, syncengine.Options{}); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	cc.Statusf("Account %q created. Welcome phrase (store it somewhere safe):\n", username)
	phrase, err := acct.Phrase()
	if err != nil {
		return err
	}
	cc.Statusf("%s\n", strings.Join(phrase[:], " "))
	return nil
}

func newAccountImportCmd() *cobra.Command {
	var flagAPIURL string

	cmd := &cobra.Command{
		Use:   "import <24-word phrase>",
		Short: "Restore an account on this machine from its key phrase",
		Args:  cobra.MinimumNArgs(24),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountImport(cmd, args, flagAPIURL)
		},
	}
	cmd.Flags().StringVar(&flagAPIURL, "api-url", "", "relay server URL (defaults to the configured one)")
	return cmd
}

func runAccountImport(cmd *cobra.Command, words []string, apiURL string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	if _, err := cc.Store.LoadAccount(); err == nil {
		return model.New(model.ErrAccountExists, "")
	}

	var phrase [24]string
	copy(phrase[:], words[:24])

	seed, err := model.PhraseToSeed(phrase)
	if err != nil {
		return err
	}

	pub, err := crypto.Public(seed)
	if err != nil {
		return err
	}

	if apiURL == "" {
		apiURL = cc.Cfg.Account.APIURL
	}

	rc, err := relay.NewClient(apiURL, defaultHTTPClient(), seed, cc.Logger)
	if err != nil {
		return fmt.Errorf("building relay client: %w", err)
	}
	username, err := rc.GetUsername(ctx, pub)
	if err != nil {
		return fmt.Errorf("looking up account on server: %w", err)
	}

	acct := &model.Account{Username: username, APIURL: apiURL, Seed: seed}
	if err := cc.Store.SaveAccount(*acct); err != nil {
		return fmt.Errorf("saving account locally: %w", err)
	}

	_, _, engine, err := cc.Account(ctx)
	if err != nil {
		return err
	}
	if _, err := engine.Sync(ctx, syncengine.Options{}); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	cc.Statusf("Restored account %q.\n", username)
	return nil
}

func newAccountExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print this account's key phrase",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			acct, err := cc.Store.LoadAccount()
			if err != nil {
				return err
			}
			phrase, err := acct.Phrase()
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(phrase[:], " "))
			return nil
		},
	}
}

func newAccountInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the local account's identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			acct, err := cc.Store.LoadAccount()
			if err != nil {
				return err
			}
			pub, err := acct.PublicKey()
			if err != nil {
				return err
			}
			r, g, b := acct.Color()

			fmt.Printf("Username:    %s\n", acct.Username)
			fmt.Printf("Server:      %s\n", acct.APIURL)
			fmt.Printf("Public key:  %s\n", pub.String())
			fmt.Printf("Color:       #%02x%02x%02x\n", r, g, b)
			if acct.IsBeta() {
				fmt.Println("Beta:        yes")
			}
			return nil
		},
	}
}
