package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"taggerd/internal/api"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var model string
	var threshold float64
	var queue string
	var name string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tag <image>",
		Short: "Interrogate an image and print its tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			req := api.InterrogateRequest{
				Image:       base64.StdEncoding.EncodeToString(data),
				Model:       model,
				Queue:       queue,
				NameInQueue: name,
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}

			resp, err := ctx.client().Interrogate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			if ratings := resp.Caption["rating"]; len(ratings) > 0 {
				fmt.Fprintln(out, renderScoreTable("Rating", ratings))
			}
			tags := resp.Caption["tag"]
			if len(tags) == 0 {
				fmt.Fprintln(out, "No tags above the threshold")
				return nil
			}
			fmt.Fprintln(out, renderScoreTable("Tag", tags))
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to interrogate with (default from config)")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Minimum confidence for reported tags")
	cmd.Flags().StringVar(&queue, "queue", "", "Queue name for batched interrogation")
	cmd.Flags().StringVar(&name, "name", "", "Name of the image within the queue")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw JSON response")
	return cmd
}

func renderScoreTable(header string, scores map[string]float64) string {
	type scored struct {
		label string
		score float64
	}
	rows := make([]scored, 0, len(scores))
	for label, score := range scores {
		rows = append(rows, scored{label, score})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].label < rows[j].label
	})

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{
			displayName(row.label),
			fmt.Sprintf("%.4f", row.score),
		})
	}
	return renderTable(
		[]string{header, "Confidence"},
		cells,
		[]columnAlignment{alignLeft, alignRight},
	)
}
