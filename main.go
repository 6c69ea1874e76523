package main

import "github.com/ValentinKolb/kdb/cmd"

func main() {
	cmd.Execute()
}
