package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmswan/active-kernel/internal/logging"
	"github.com/jmswan/active-kernel/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print the full policy per cycle")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	logging.SetLevel(slog.LevelWarn)
	logger, logCloser, err := logging.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logCloser.Close()

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	result, err := replay.Run(fixture, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(2)
	}

	if fixture.Description != "" {
		fmt.Printf("fixture: %s\n", fixture.Description)
	}
	for _, c := range result.Cycles {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %-6s action=%-14s surprise=%.4f\n", c.CycleID, status, c.Action, c.Surprise)
		if *verbose {
			for action, prob := range c.Policy {
				fmt.Printf("           %-14s %.4f\n", action, prob)
			}
		}
		for _, f := range c.Failures {
			fmt.Printf("           %s\n", f)
		}
	}

	if !result.Passed {
		fmt.Println("replay: FAIL")
		os.Exit(1)
	}
	fmt.Println("replay: PASS")
}

// #endregion main
