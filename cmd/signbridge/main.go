package main

import "github.com/vietddude/signbridge/internal/cli"

func main() {
	cli.Execute()
}
