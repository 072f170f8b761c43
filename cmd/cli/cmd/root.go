package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "srcctl",
	Short: "srcctl books speedrun.com runs for review",
	Long: `srcctl is the command-line client for srcbook, the run booking service for
speedrun.com moderators.

Booking a run tells the other moderators you are reviewing it. Bookings are
advisory: they do not stop anyone from verifying or rejecting a run on
speedrun.com.

Common workflows:

  List pending runs and who booked them:
    srcctl pending

  Book a run, then release it:
    srcctl book <run-id>
    srcctl unbook <run-id>

  Check which account your credentials resolve to:
    srcctl whoami

Configuration:
  Set the API endpoint and credentials via flags, environment variables or
  $HOME/.srcctl.yaml:
    SRCBOOK_URL        API endpoint (default: http://localhost:8080)
    SRCBOOK_API_KEY    speedrun.com API key
    SRCBOOK_USERNAME   username, for servers using password auth
    SRCBOOK_PASSWORD   password, for servers using password auth`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".srcctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".srcctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "SRCBOOK_VARNAME"
	viper.SetEnvPrefix("SRCBOOK")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// newClient builds a client from the resolved configuration.
func newClient() *SrcbookClient {
	c := NewSrcbookClient(viper.GetString("url"), viper.GetString("api_key"))
	c.Username = viper.GetString("username")
	c.Password = viper.GetString("password")
	return c
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.srcctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "srcbook server URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("api-key", "k", "", "speedrun.com API key")
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))

	rootCmd.PersistentFlags().StringP("username", "u", "", "username for password auth")
	viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))

	rootCmd.PersistentFlags().String("password", "", "password for password auth")
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
}
