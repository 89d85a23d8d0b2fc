package main

import (
	"context"
	"fmt"

	"github.com/hiddengem/hiddengem/media"
)

// shortDescription flags provider text not worth keeping: a sentence
// fragment or a stub like "No description available."
const shortDescriptionLen = 60

func handleDescriptionsCommand(ctx context.Context, args []string) {
	switch args[0] {
	case "clear":
		handleDescriptionsClear(args[1:])
	default:
		fmt.Printf("Unknown descriptions command: %s\n", args[0])
	}
}

// handleDescriptionsClear drops provider-sourced descriptions that are
// empty-ish or too short, so the next resolution fetches a fresh one.
// Admin descriptions are never touched. With --all, every non-admin
// description goes.
func handleDescriptionsClear(args []string) {
	all := false
	for _, a := range args {
		switch a {
		case "--all":
			all = true
		default:
			fatal("Unknown argument: %s", a)
		}
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		fatal("Failed to start: %v", err)
	}

	var cleared, kept int
	for _, game := range eng.catalog.Games() {
		key := media.NewGameKey(game.Title, game.Console)
		meta, err := eng.store.Meta(key)
		if err != nil {
			fatal("Failed to read metadata for %s: %v", key.String(), err)
		}
		if meta.Description == "" || meta.DescriptionAdmin {
			continue
		}
		if !all && len(meta.Description) >= shortDescriptionLen {
			kept++
			continue
		}
		if err := eng.store.DeleteDescription(key); err != nil {
			fatal("Failed to clear description for %s: %v", key.String(), err)
		}
		eng.inspector.Invalidate(key)
		cleared++
	}

	fmt.Printf("Cleared %d descriptions, kept %d\n", cleared, kept)
}
