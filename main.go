package main

import "github.com/tanq16/danzo-hls/cmd"

func main() {
	cmd.Execute()
}
