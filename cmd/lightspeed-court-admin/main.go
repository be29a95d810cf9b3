package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tcriess/lightspeed-court/auth"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/persistence"
	"github.com/tcriess/lightspeed-court/types"
	"github.com/tcriess/lightspeed-court/ws"
)

// A very simple CLI tool for the administration of bans and moderator accounts.

var configPath = pflag.StringP("config", "c", "", "path to config file or directory")

func main() {
	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	// everything after the first argument belongs to cobra
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	cfg, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		globals.AppLogger.Error("could not read configuration", "error", err)
		os.Exit(1)
	}
	globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		globals.AppLogger.Error("could not open persistence", "error", err)
		os.Exit(1)
	}
	if persister == nil {
		globals.AppLogger.Error("no persistence configured")
		os.Exit(1)
	}
	defer persister.Close()

	printJSON := func(v interface{}) {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			globals.AppLogger.Error("could not marshal", "error", err)
			return
		}
		fmt.Println(string(b))
	}

	var cmdBans = &cobra.Command{
		Use:   "bans",
		Short: "Manage bans",
	}
	var cmdBansList = &cobra.Command{
		Use:   "list [ipid]",
		Short: "List bans",
		Long:  `list prints all stored bans, or the bans matching the given IPID.`,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var bans []*types.Ban
			var err error
			if len(args) == 1 {
				bans, err = persister.GetBans(args[0], "")
			} else {
				bans, err = persister.ListBans()
			}
			if err != nil {
				globals.AppLogger.Error("could not get bans", "error", err)
				return
			}
			printJSON(bans)
		},
	}
	var banModerator string
	var cmdBansAdd = &cobra.Command{
		Use:   "add [ipid] [duration|perma] [reason...]",
		Short: "Add a ban",
		Long:  `add bans the given IPID. The duration is a Go duration ("12h"), a number of days ("3d") or "perma".`,
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			duration, err := ws.ParseBanDuration(args[1])
			if err != nil {
				globals.AppLogger.Error("invalid duration", "error", err)
				return
			}
			ban := &types.Ban{
				IPID:      args[0],
				Time:      time.Now(),
				Reason:    strings.Join(args[2:], " "),
				Duration:  duration,
				Moderator: banModerator,
			}
			if err := persister.StoreBan(ban); err != nil {
				globals.AppLogger.Error("could not store ban", "error", err)
				return
			}
			printJSON(ban)
		},
	}
	cmdBansAdd.Flags().StringVar(&banModerator, "moderator", "admin", "moderator name stored with the ban")
	var cmdBansRevoke = &cobra.Command{
		Use:   "revoke [ban id]",
		Short: "Revoke a ban",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				globals.AppLogger.Error("invalid ban id", "id", args[0])
				return
			}
			if err := persister.RevokeBan(id); err != nil {
				globals.AppLogger.Error("could not revoke ban", "error", err)
			}
		},
	}
	var cmdBansSweep = &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired and revoked bans",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			n, err := persister.DeleteExpiredBans(time.Now())
			if err != nil {
				globals.AppLogger.Error("could not delete bans", "error", err)
				return
			}
			fmt.Printf("deleted %d bans\n", n)
		},
	}

	var cmdUsers = &cobra.Command{
		Use:   "users",
		Short: "Manage moderator accounts",
	}
	var cmdUsersList = &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			users, err := persister.GetUsers()
			if err != nil {
				globals.AppLogger.Error("could not get users", "error", err)
				return
			}
			for _, u := range users {
				u.PasswordHash = ""
			}
			printJSON(users)
		},
	}
	var userEmail string
	var cmdUsersAdd = &cobra.Command{
		Use:   "add [username] [password] [role]",
		Short: "Create or update a user",
		Long:  `add stores a moderator account. The role must be SUPER, NONE or one of the configured acl_role blocks.`,
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			role := args[2]
			roles := cfg.Roles()
			if _, ok := roles[role]; !ok {
				role = strings.ToUpper(role)
			}
			if _, ok := roles[role]; !ok {
				globals.AppLogger.Error("unknown role", "role", role)
				return
			}
			hash, err := auth.HashPassword(args[1])
			if err != nil {
				globals.AppLogger.Error("could not hash password", "error", err)
				return
			}
			user := types.User{
				Username:     args[0],
				PasswordHash: hash,
				Role:         role,
				Email:        userEmail,
				CreatedAt:    time.Now(),
			}
			if err := persister.StoreUser(user); err != nil {
				globals.AppLogger.Error("could not store user", "error", err)
			}
		},
	}
	cmdUsersAdd.Flags().StringVar(&userEmail, "email", "", "email used for OIDC logins")
	var cmdUsersRemove = &cobra.Command{
		Use:   "remove [username]",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := persister.DeleteUser(args[0]); err != nil {
				globals.AppLogger.Error("could not delete user", "error", err)
			}
		},
	}

	var rootCmd = &cobra.Command{Use: "lightspeed-court-admin"}
	rootCmd.AddCommand(cmdBans, cmdUsers)
	cmdBans.AddCommand(cmdBansList, cmdBansAdd, cmdBansRevoke, cmdBansSweep)
	cmdUsers.AddCommand(cmdUsersList, cmdUsersAdd, cmdUsersRemove)
	rootCmd.SetArgs(pflag.Args())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
