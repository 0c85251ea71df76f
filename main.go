package main

import "github.com/mhrabal/rollmark/cmd"

func main() {
	cmd.Execute()
}
