package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
	"github.com/jmswan/active-kernel/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to active_kernel.db")
	last := flag.Int("last", 20, "show N most recent snapshots")
	decisions := flag.Bool("decisions", false, "show the decision log instead of snapshots")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/active_kernel.db [--last N] [--decisions] [--json]")
		os.Exit(2)
	}

	db, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *decisions {
		err = runDecisionMode(db, *last, *jsonOut)
	} else {
		err = runSnapshotMode(db, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region snapshot-mode

type snapshotRow struct {
	VersionID string                        `json:"version_id"`
	ParentID  string                        `json:"parent_id,omitempty"`
	Surprise  float64                       `json:"surprise"`
	CreatedAt string                        `json:"created_at"`
	Factors   map[string]map[string]float64 `json:"factors"`
	Entropy   map[string]float64            `json:"entropy"`
}

func runSnapshotMode(db *store.Store, last int, jsonOut bool) error {
	snaps, err := db.ListSnapshots(last)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(os.Stderr, "no snapshots found")
		return nil
	}

	rows := make([]snapshotRow, len(snaps))
	for i, s := range snaps {
		rows[i] = snapshotRow{
			VersionID: s.VersionID,
			ParentID:  s.ParentID,
			Surprise:  s.Surprise,
			CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
			Factors:   factorBreakdown(s.Belief),
			Entropy:   entropyBreakdown(s.Belief),
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, r := range rows {
		fmt.Printf("%s  surprise=%.4f  %s\n", shortID(r.VersionID), r.Surprise, r.CreatedAt)
		for _, f := range model.Factors() {
			var parts []string
			for _, label := range f.Outcomes() {
				parts = append(parts, fmt.Sprintf("%s=%.3f", label, r.Factors[f.String()][label]))
			}
			fmt.Printf("    %-13s H=%.3f  %s\n", f, r.Entropy[f.String()], strings.Join(parts, " "))
		}
	}
	return nil
}

func factorBreakdown(b belief.Belief) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, model.NumFactors)
	for _, f := range model.Factors() {
		row := b.Factor(f)
		m := make(map[string]float64, len(row))
		for i, label := range f.Outcomes() {
			m[label] = row[i]
		}
		out[f.String()] = m
	}
	return out
}

func entropyBreakdown(b belief.Belief) map[string]float64 {
	out := make(map[string]float64, model.NumFactors)
	for _, f := range model.Factors() {
		out[f.String()] = belief.Entropy(b.Factor(f))
	}
	return out
}

// #endregion snapshot-mode

// #region decision-mode

func runDecisionMode(db *store.Store, last int, jsonOut bool) error {
	rows, err := db.ListDecisions(last)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, d := range rows {
		fmt.Printf("cycle %-5d %-14s surprise=%.4f version=%s  %s\n",
			d.Cycle, d.Action, d.Surprise, shortID(d.VersionID),
			d.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// #endregion decision-mode

// #region helpers

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
