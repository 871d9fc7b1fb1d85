package main

import "github.com/sheridangray/family-event-planner/internal/cli"

func main() {
	cli.Execute()
}
