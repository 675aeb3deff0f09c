package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizparty",
	Short: "QuizParty - real-time multiplayer quiz game server",
	Long: `QuizParty is the authoritative game server for a multiplayer quiz party game.
It runs many independent rooms, each driving a full match lifecycle over
WebSockets: category selection mini-games, question rounds, bonus rounds,
scoreboards and rematch voting.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
