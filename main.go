package main

import "github.com/vibast-solutions/ms-go-journal/cmd"

func main() {
	cmd.Execute()
}
