package cmd

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
)

var bookCmd = &cobra.Command{
	Use:   "book [run_id]",
	Short: "Book a run for review",
	Long:  `Mark a run as being reviewed by you. Booking a run someone else holds takes it over.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Book(args[0]); err != nil {
			return err
		}
		cmd.Printf("%s✓%s Booked %s\n", colorGreen, colorReset, args[0])
		return nil
	},
}

var unbookCmd = &cobra.Command{
	Use:   "unbook [run_id]",
	Short: "Release a run you booked",
	Long:  `Release your booking on a run. The server refuses to release a run booked by someone else unless it is configured to allow it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Unbook(args[0]); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
				cmd.Printf("%s✗%s %s is not booked by you\n", colorRed, colorReset, args[0])
			}
			return err
		}
		cmd.Printf("%s✓%s Released %s\n", colorGreen, colorReset, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(unbookCmd)
}
