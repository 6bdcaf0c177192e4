package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/media-cache/internal/config"
	"github.com/oshokin/media-cache/internal/service/media"
)

// ExecuteListCommand prints the reconciled catalog.
func ExecuteListCommand(ctx context.Context, cfg *config.Config) {
	service := loadService(ctx, cfg)
	defer service.Close()

	printItems(os.Stdout, service.Items())
}

// printItems writes items as an aligned table.
func printItems(w io.Writer, items []media.Item) {
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(table, "ID\tSTATE\tSIZE\tTITLE\tPATH")

	for i := range items {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
			items[i].ID,
			items[i].State,
			localSize(&items[i]),
			items[i].Title,
			items[i].LocalPath)
	}

	_ = table.Flush() //nolint:errcheck // Nothing to do if stdout is gone.
}

func localSize(item *media.Item) string {
	if !item.Downloaded {
		return "-"
	}

	stat, err := os.Stat(item.LocalPath)
	if err != nil {
		return "?"
	}

	//nolint:gosec // File sizes are never negative.
	return humanize.Bytes(uint64(stat.Size()))
}
