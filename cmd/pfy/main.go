package main

import "github.com/siva-netizen/Promptify/internal/cli"

func main() {
	cli.Execute()
}
