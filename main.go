package main

import "potbuddy-backend/cmd"

func main() {
	cmd.Execute()
}
