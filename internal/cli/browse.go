package cli

import (
	"fmt"
	"strings"

	"github.com/shelfindex/bookfts/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Open the interactive search result browser",
	Long: `Launches a full-screen Bubble Tea browser over the library: type a query,
press enter to search, then use the up/down arrows to page through results.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer st.Close()
	logger := newLogger(cmd)
	st.WithLogger(logger)

	holder, err := newHolder(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}
	engine := newEngine(st, holder).WithLogger(logger)

	initialQuery := strings.Join(args, " ")
	model := tui.NewModel(engine, initialQuery)

	program := tea.NewProgram(model)
	_, err = program.Run()
	return err
}
