package main

import "github.com/tanq16/ffgrab/cmd"

func main() {
	cmd.Execute()
}
