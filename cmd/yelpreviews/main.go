package main

import (
	"yelpreviews/cmd/yelpreviews/commands"
	"yelpreviews/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
