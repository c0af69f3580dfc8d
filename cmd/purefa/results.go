package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mvachon/purefa/internal/model"
)

// renderResults prints one row per task plus a convergence summary.
func renderResults(w io.Writer, results []model.TaskResult) {
	if len(results) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"ID", "TYPE", "STATUS", "DURATION", "MESSAGE"})

	for _, res := range results {
		message := res.Message
		if res.Error != nil {
			message = res.Error.Error()
		}
		tw.AppendRow(table.Row{
			res.TaskID,
			res.Type,
			statusCell(res.Status),
			res.Duration.Round(time.Millisecond),
			message,
		})
	}

	summary := model.Summarize(results)
	tw.AppendFooter(table.Row{"", "", "", "",
		fmt.Sprintf("%d changed, %d unchanged, %d pending, %d failed",
			summary.Changed, summary.Unchanged, summary.WouldAct, summary.Failed)})

	tw.Render()
}

func statusCell(status string) string {
	switch status {
	case model.StatusSuccess:
		return text.FgGreen.Sprint(status)
	case model.StatusUnchanged, model.StatusSkipped:
		return status
	case model.StatusFailed:
		return text.FgRed.Sprint(status)
	case model.StatusWouldCreate, model.StatusWouldUpdate, model.StatusWouldDelete:
		return text.FgYellow.Sprint(status)
	default:
		return status
	}
}
