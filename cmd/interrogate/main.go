package main

import "github.com/mvp-joe/interrogate/internal/cli"

func main() {
	cli.Execute()
}
