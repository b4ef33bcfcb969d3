package main

import (
	"fmt"
	"os"

	"github.com/swimanni/chat-cleaner/internal/adapters/driven/config/file"
	"github.com/swimanni/chat-cleaner/internal/adapters/driving/cli"
)

func main() {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		os.Exit(1)
	}
	cli.SetConfigStore(configStore)

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading prompts: %v\n", err)
		os.Exit(1)
	}
	cli.SetPromptStore(promptStore)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
