package main

import "github.com/proboscis/claude-block-checker/internal/commands"

func main() {
	commands.Execute()
}
