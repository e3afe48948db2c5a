package main

import "github.com/logship-io/logsh/cmd"

func main() {
	cmd.Execute()
}
