package main

import "github.com/chorusbot/chorus/cmd"

func main() {
	cmd.Execute()
}
