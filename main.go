package main

import "github.com/mj1618/desktop-organizer/cmd"

func main() {
	cmd.Execute()
}
