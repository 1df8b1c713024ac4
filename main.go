package main

import "github.com/MCahalane/vercel-assistant-chat/cmd"

func main() {
	cmd.Execute()
}
