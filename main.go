// ABOUTME: Entry point for the planner CLI
// ABOUTME: Lesson-planning client for teachers, scripted or interactive

package main

import (
	"fmt"
	"os"

	"github.com/markalston/maarif-planner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
