package main

import "perdiem/cmd"

func main() {
	cmd.Execute()
}
