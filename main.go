package main

import (
	"github.com/neo/quizparty_backend/cmd"
)

func main() {
	cmd.Execute()
}
