package main

import (
	"os"

	"churchcal/internal/commands"
	appLog "churchcal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
