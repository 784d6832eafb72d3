package main

import "github.com/ValentinKolb/braidwood/cmd"

func main() {
	cmd.Execute()
}
