package main

import "github.com/gaurav-prasanna/framedoc/cmd"

func main() {
	cmd.Execute()
}
