package main

import "github.com/rajachanda/rps/internal/cli"

func main() {
	cli.Execute()
}
