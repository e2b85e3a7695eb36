package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Browse runs the rule browser full screen until the user quits or ctx is canceled.
func Browse(ctx context.Context, rules []model.Rule, catalog model.Catalog, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(New(rules, catalog), opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rule browser failed: %w", err)
	}
	return nil
}
