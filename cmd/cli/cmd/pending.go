package cmd

import (
	"sort"

	"srcbook/pkg/api"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending runs and their bookings",
	Long: `List the runs awaiting review on every tracked leaderboard, with the moderator
who booked each one. Use --cached to read the server's local run cache instead
of the live queue, and --free to hide runs someone already booked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cached, _ := cmd.Flags().GetBool("cached")
		free, _ := cmd.Flags().GetBool("free")

		byGame, err := newClient().Pending(cached)
		if err != nil {
			return err
		}

		printPending(cmd, byGame, free)
		return nil
	},
}

func printPending(cmd *cobra.Command, byGame api.PendingResponse, freeOnly bool) {
	games := make([]string, 0, len(byGame))
	for id := range byGame {
		games = append(games, id)
	}
	sort.Strings(games)

	total, booked := 0, 0
	for _, game := range games {
		runs := byGame[game]
		cmd.Printf("%s%s%s %s(%d pending)%s\n", colorBold, game, colorReset, colorDim, len(runs), colorReset)
		cmd.Println("──────────────────────────────")

		for _, r := range runs {
			total++
			if r.BookedBy != nil {
				booked++
				if freeOnly {
					continue
				}
			}
			printRun(cmd, r)
		}
		cmd.Println()
	}

	cmd.Printf("%d runs, %d booked\n", total, booked)
}

func printRun(cmd *cobra.Command, r api.Run) {
	cmd.Printf("%s %s  %s%s%s", bookingIcon(r.BookedBy), r.ID, colorCyan, r.PlayerName, colorReset)
	if r.Category != "" {
		cmd.Printf("  %s", r.Category)
	}
	if r.Times != "" {
		cmd.Printf("  %s", r.Times)
	}
	cmd.Println()

	if r.BookedBy != nil {
		cmd.Printf("    %sbooked by%s %s%s%s\n", colorDim, colorReset, colorYellow, *r.BookedBy, colorReset)
	}
	cmd.Printf("    %s%s%s\n", colorDim, r.Weblink, colorReset)
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func bookingIcon(bookedBy *string) string {
	if bookedBy == nil {
		return colorGreen + "◯" + colorReset
	}
	return colorYellow + "●" + colorReset
}

func init() {
	pendingCmd.Flags().Bool("cached", false, "read the server's run cache instead of the live queue")
	pendingCmd.Flags().Bool("free", false, "only show runs nobody has booked")
	rootCmd.AddCommand(pendingCmd)
}
