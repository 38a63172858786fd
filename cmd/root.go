package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "event-gallery",
	Short: "Find yourself in a shared event photo gallery with a selfie",
	Long: `Event Gallery matches a guest's selfie against every photo of a shared
event session. Matching photos are found with face embeddings and an adaptive
reference gallery, then shown or hidden according to the session's
browse or privacy mode.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
