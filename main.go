package main

import "cornercam/cmd"

func main() {
	cmd.Execute()
}
