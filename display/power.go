package display

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

type Output struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Enabled     bool    `json:"enabled"`
	Modes       []Mode  `json:"modes"`
	Transform   string  `json:"transform"`
	Scale       float64 `json:"scale"`
}

type Mode struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Refresh float64 `json:"refresh"`
	Current bool    `json:"current"`
}

// Power switches a wayland output on and off through wlr-randr.
type Power struct {
	Output string
	// Bin is the wlr-randr executable.
	Bin string
}

func NewPower(output string) *Power {
	return &Power{Output: output, Bin: "wlr-randr"}
}

// Enabled reports whether the output is currently on.
func (p *Power) Enabled(ctx context.Context) (bool, error) {
	out, err := exec.CommandContext(ctx, p.Bin, "--output", p.Output, "--json").Output()
	if err != nil {
		return false, fmt.Errorf("failed to run wlr-randr: %w", err)
	}

	var results []Output
	if err := json.Unmarshal(out, &results); err != nil {
		return false, fmt.Errorf("failed to unmarshal wlr-randr output: %w", err)
	}

	for _, result := range results {
		if result.Name == p.Output {
			return result.Enabled, nil
		}
	}
	return false, fmt.Errorf("output %s not found", p.Output)
}

// SetEnabled turns the output on or off.
func (p *Power) SetEnabled(ctx context.Context, enabled bool) error {
	arg := "--off"
	if enabled {
		arg = "--on"
	}
	if err := exec.CommandContext(ctx, p.Bin, "--output", p.Output, arg).Run(); err != nil {
		return fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return nil
}
