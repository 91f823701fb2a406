package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"leaveportal/internal/cli/formatter"
	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/domain/events"
)

const maxImportBytes = 8 << 20

func newExportCmd(app *App) *cobra.Command {
	var out, format, month string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the calendar as iCalendar or a monthly PDF roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				body []byte
				err  error
			)
			switch strings.ToLower(format) {
			case "ics":
				body, err = app.Source.ExportICS(cmd.Context())
			case "pdf":
				m := app.now()
				if month != "" {
					if m, err = time.ParseInLocation("2006-01", month, app.loc()); err != nil {
						return fmt.Errorf("invalid month %q: use YYYY-MM", month)
					}
				}
				body, err = app.Source.RosterPDF(cmd.Context(), m)
			default:
				return fmt.Errorf("unsupported format %q: use ics or pdf", format)
			}
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), formatter.Success("Wrote "+out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "ics", "Export format: ics or pdf")
	cmd.Flags().StringVar(&month, "month", "", "Roster month for pdf (YYYY-MM, default current)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var (
		horizonDays int
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE|URL",
		Short: "Import leave from an iCalendar file or feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			from := calendar.StartOfDay(app.now())
			requests, err := events.DecodeICS(bytes.NewReader(raw), events.DecodeOptions{
				Location: app.loc(),
				From:     from,
				To:       from.AddDate(0, 0, horizonDays),
			})
			if err != nil {
				return err
			}

			batch, skipped := splitRequests(requests, app.validateOptions())
			if len(batch) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Nothing to import."))
				return nil
			}
			if dryRun {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(batch, app.loc()))
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim(fmt.Sprintf("%d entries, %d skipped (dry run)", len(batch), skipped)))
				return nil
			}

			created := 0
			for start := 0; start < len(batch); start += events.MaxBatchSize {
				chunk := batch[start:min(start+events.MaxBatchSize, len(batch))]
				stored, err := app.Source.CreateEvents(cmd.Context(), chunk)
				if err != nil {
					return fmt.Errorf("imported %d entries before failing: %w", created, err)
				}
				created += len(stored)
			}
			msg := fmt.Sprintf("Imported %d entries from %d leave requests", created, len(requests)-skipped)
			if skipped > 0 {
				msg += fmt.Sprintf(", skipped %d", skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(msg))
			return nil
		},
	}
	cmd.Flags().IntVar(&horizonDays, "horizon-days", 365, "How far ahead recurring leave is expanded")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be imported without saving")
	return cmd
}

// splitRequests validates and splits imported requests; invalid ones are
// logged and counted.
func splitRequests(requests []calendar.LeaveRequest, opts calendar.ValidateOptions) ([]calendar.DisplayEvent, int) {
	var (
		batch   []calendar.DisplayEvent
		skipped int
	)
	for _, req := range requests {
		if err := calendar.ValidateRequest(req, opts); err != nil {
			slog.Warn("import entry skipped", "title", req.Title, "err", err)
			skipped++
			continue
		}
		batch = append(batch, calendar.Split(req)...)
	}
	return batch, skipped
}

func readSource(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportBytes))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("fetching " + src + ": " + resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImportBytes))
}
