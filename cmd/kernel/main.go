package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jmswan/active-kernel/internal/engine"
	"github.com/jmswan/active-kernel/internal/logging"
	"github.com/jmswan/active-kernel/internal/model"
	"github.com/jmswan/active-kernel/internal/observe"
	"github.com/jmswan/active-kernel/internal/store"
)

// #region telemetry-wire

// telemetryLine is the JSON shape accepted on stdin, one sample per line.
// Missing fields fall back to the encoder's neutral defaults.
type telemetryLine struct {
	EnergyFraction *float64 `json:"energy_fraction,omitempty"`
	Phi            *float64 `json:"phi,omitempty"`
	ToolRan        *bool    `json:"tool_ran,omitempty"`
	ToolSuccess    *bool    `json:"tool_success,omitempty"`
	CoherenceScore *float64 `json:"coherence,omitempty"`
	TaskStatus     *string  `json:"task,omitempty"`
}

func (t telemetryLine) telemetry() observe.Telemetry {
	return observe.Telemetry{
		EnergyFraction: t.EnergyFraction,
		Phi:            t.Phi,
		ToolRan:        t.ToolRan,
		ToolSuccess:    t.ToolSuccess,
		CoherenceScore: t.CoherenceScore,
		TaskStatus:     t.TaskStatus,
	}
}

// #endregion telemetry-wire

// #region main

func main() {
	dbPath := envOr("KERNEL_DB", "active_kernel.db")
	logPath := envOr("KERNEL_LOG", "")
	logging.SetLevel(logging.ParseLevel(envOr("KERNEL_LOG_LEVEL", "info")))

	logger, logCloser, err := logging.New(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	cfg := engine.DefaultConfig()
	if v := os.Getenv("KERNEL_TEMP"); v != "" {
		if temp, err := strconv.ParseFloat(v, 64); err == nil && temp > 0 {
			cfg.Policy.Temperature = temp
		}
	}

	eng, err := engine.New(cfg, nil, logger)
	if err != nil {
		logger.Error("engine construction failed", "err", err)
		os.Exit(1)
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		logger.Error("store open failed", "err", err, "path", dbPath)
		os.Exit(1)
	}
	defer db.Close()

	encoder := observe.NewEncoder(observe.DefaultDefaults())

	fmt.Println("Active inference kernel ready.")
	fmt.Printf("  DB: %s\n", dbPath)
	fmt.Println(`Paste telemetry JSON per line, e.g. {"energy_fraction":0.9,"task":"active"} ('quit' to exit):`)

	scanner := bufio.NewScanner(os.Stdin)
	parentID := ""

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		var wire telemetryLine
		if err := json.Unmarshal([]byte(line), &wire); err != nil {
			logger.Error("bad telemetry line", "err", err)
			continue
		}

		obs := encoder.Encode(wire.telemetry())
		beliefs, err := eng.InferStates(obs)
		if err != nil {
			logger.Error("state inference failed", "err", err)
			continue
		}

		pol, scores := eng.InferPolicies()
		action, err := eng.SampleAction(pol)
		if err != nil {
			logger.Error("sampling failed", "err", err)
			continue
		}

		var ev engine.CycleEvent
		select {
		case ev = <-eng.Events():
		default:
		}

		versionID, err := db.SaveSnapshot(beliefs, parentID, ev.Surprise)
		if err != nil {
			logger.Error("snapshot save failed", "err", err)
		} else {
			parentID = versionID
			policyJSON, _ := json.Marshal(policyMap(pol.Probs()))
			efeJSON, _ := json.Marshal(scores)
			if err := db.LogDecision(store.Decision{
				VersionID:  versionID,
				Cycle:      ev.Cycle,
				Action:     action,
				PolicyJSON: string(policyJSON),
				EFEJSON:    string(efeJSON),
				Surprise:   ev.Surprise,
			}); err != nil {
				logger.Error("decision log failed", "err", err)
			}
		}

		st := eng.Stats()
		fmt.Printf("[cycle %d] action=%s surprise=%.4f avgSurprise=%.4f policyEntropy=%.4f\n",
			ev.Cycle, action, ev.Surprise, st.AverageSurprise, ev.PolicyEntropy)
	}
}

// #endregion main

// #region helpers

func policyMap(probs []float64) map[model.Action]float64 {
	out := make(map[model.Action]float64, len(probs))
	for i, p := range probs {
		if a, ok := model.ActionAt(i); ok {
			out[a] = p
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
