package main

import (
	"os"

	"reddit-mcp-server/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
