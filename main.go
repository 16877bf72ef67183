package main

import "github.com/steakhouse-fi/sizzle/cmd"

func main() {
	cmd.Execute()
}
