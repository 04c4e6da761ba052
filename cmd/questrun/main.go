// Questrun is a life-gamification run engine: quests, a rival, lockdowns,
// bosses and permadeath, played from a terminal or observed over WebSocket.
package main

import "github.com/nathoo/questrun/cmd/questrun/root"

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root.Execute(version, commit, date)
}
