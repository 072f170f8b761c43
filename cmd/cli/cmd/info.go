package cmd

import (
	"sort"

	"github.com/spf13/cobra"
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "List a leaderboard's moderators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		game, _ := cmd.Flags().GetString("game")

		mods, err := newClient().Moderators(game)
		if err != nil {
			return err
		}
		for _, m := range mods {
			cmd.Println(m)
		}
		return nil
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the tracked leaderboards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		games, err := newClient().Games()
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(games))
		for id := range games {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			cmd.Printf("%s%s%s  %s\n", colorDim, id, colorReset, games[id])
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account your credentials resolve to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := newClient().WhoAmI()
		if err != nil {
			return err
		}
		cmd.Println(name)
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Refresh the server's run cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Fetch(); err != nil {
			return err
		}
		cmd.Printf("%s✓%s Cache refreshed\n", colorGreen, colorReset)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Drop bookings for runs that are no longer pending",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := newClient().Cleanup()
		if err != nil {
			return err
		}
		cmd.Printf("%s✓%s Removed %d stale runs\n", colorGreen, colorReset, len(deleted))
		for _, id := range deleted {
			cmd.Printf("  %s%s%s\n", colorDim, id, colorReset)
		}
		return nil
	},
}

func init() {
	modsCmd.Flags().String("game", "", "game id (default: the server's first tracked game)")
	rootCmd.AddCommand(modsCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(cleanupCmd)
}
