package main

import "github.com/oshokin/site-environment/cmd/site-environment/cmd"

func main() {
	cmd.Execute()
}
