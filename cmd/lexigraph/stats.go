package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/japaniel/lexigraph/pkg/wordgraph"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the size of the collected graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			g, err := st.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load graph: %w", err)
			}
			wordgraph.Complete(g)
			return writeStats(cmd.OutOrStdout(), g)
		},
	}
}

func writeStats(w io.Writer, g *wordgraph.Graph) error {
	fmt.Fprintf(w, "%d key words\n", g.Len())
	fmt.Fprintf(w, "%d def words\n", g.ValueWords())
	_, err := fmt.Fprintf(w, "%d unexplored words\n", g.FrontierLen())
	return err
}

func newWalkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "walk <word>",
		Short: "Walk the graph from a word and show its reach",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			g, err := st.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load graph: %w", err)
			}
			wordgraph.Complete(g)

			steps, err := wordgraph.Walk(g, args[0])
			if err != nil {
				return fmt.Errorf("walk %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), walkTable(steps))
			return err
		},
	}
}

func walkTable(steps []wordgraph.WalkStep) string {
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.Word,
			strconv.Itoa(s.Walked),
			strconv.Itoa(s.Unexplored),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STEP", "WORD", "WALKED", "UNEXPLORED").
		Rows(rows...).
		Render()
}
