package main

import "github.com/aTrapDeer/catalyst-backend/cmd"

func main() {
	cmd.Execute()
}
