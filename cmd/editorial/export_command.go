package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"editorial/internal/archive"
	"editorial/internal/client"
	"editorial/internal/config"
	"editorial/internal/manuscript"
	"editorial/internal/stats"
)

// fetchedSnapshot adapts data already fetched over HTTP to the archive
// source interfaces.
type fetchedSnapshot struct {
	partitions manuscript.Partitions
	stats      stats.DashboardStats
}

func (f fetchedSnapshot) Snapshot() manuscript.Partitions { return f.partitions }
func (f fetchedSnapshot) Current() stats.DashboardStats   { return f.stats }

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		dir    string
		useS3  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a snapshot of every partition",
		Long: "Export a snapshot of every partition and the dashboard figures as JSON.\n" +
			"By default the file lands in the configured archive directory; --s3\n" +
			"uploads to the configured bucket and --json prints to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				snapshot, err := c.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				current, err := c.Stats(cmd.Context(), 0)
				if err != nil {
					return err
				}
				src := fetchedSnapshot{partitions: snapshot, stats: current}
				if asJSON {
					return writeJSON(cmd, archive.Document{
						ExportedAt: time.Now().UTC().Format(time.RFC3339),
						Version:    snapshot.Version,
						Total:      snapshot.Total(),
						Partitions: snapshot,
						Stats:      &current,
					})
				}

				sink, err := exportSink(cmd, ctx.configValue(), dir, useS3)
				if err != nil {
					return err
				}
				location, err := archive.New(src, sink, archive.WithStats(src)).Export(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d manuscripts to %s\n", snapshot.Total(), location)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default: archive.dir)")
	cmd.Flags().BoolVar(&useS3, "s3", false, "Upload to the configured S3 bucket")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot to stdout instead")
	return cmd
}

func exportSink(cmd *cobra.Command, cfg *config.Config, dir string, useS3 bool) (archive.Sink, error) {
	if useS3 {
		if cfg == nil {
			return nil, fmt.Errorf("configuration not available")
		}
		settings := cfg.Archive
		settings.Destination = config.ArchiveS3
		return archive.NewSink(cmd.Context(), settings)
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		if cfg == nil {
			return nil, fmt.Errorf("configuration not available")
		}
		dir = cfg.Archive.Dir
	} else {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return nil, err
		}
		dir = expanded
	}
	return archive.NewFileSink(dir), nil
}
