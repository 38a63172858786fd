package main

import "github.com/kozaktomas/event-gallery/cmd"

func main() {
	cmd.Execute()
}
