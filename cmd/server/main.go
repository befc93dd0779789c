package main

import "github.com/openreferee/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
