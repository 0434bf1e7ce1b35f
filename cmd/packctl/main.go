package main

import "github.com/wipefix/wipefix/backend/go-services/internal/cli"

func main() {
	cli.Execute()
}
