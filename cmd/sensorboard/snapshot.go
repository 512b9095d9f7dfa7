package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/internal/client"
	"github.com/jpalmerr/sensorboard/internal/store"
	"github.com/spf13/cobra"
)

// snapshotCmd prints the current state of a running board.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the current readings of a running board",
	Long: `Fetch /api/sensors and /api/alerts from a running SensorBoard and print
one line per sensor (name, value, unit, status), the status counts, and
either the active alerts or "No deviations."

Example:
  sensorboard snapshot
  sensorboard snapshot --url http://plant3:8080 --color`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().String("url", "http://localhost:8080", "base URL of the running board")
	snapshotCmd.Flags().Duration("timeout", client.DefaultTimeout, "per-request timeout")
	snapshotCmd.Flags().Bool("color", false, "colour status labels with ANSI escapes")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	baseURL, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	colour, _ := cmd.Flags().GetBool("color")

	c, err := client.New(baseURL, timeout)
	if err != nil {
		return err
	}
	defer c.Close()

	snap, err := c.Snapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	writeSnapshot(cmd.OutOrStdout(), snap, colour)
	return nil
}

// writeSnapshot renders the sensor table, status counts and alert lines.
func writeSnapshot(out io.Writer, snap client.Snapshot, colour bool) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, st := range snap.Sensors {
		fmt.Fprintf(tw, "%s\t%.2f %s\t%s\n",
			st.Name, st.CurrentValue, st.Unit, paintStatus(sensorboard.Status(st.Status), colour))
	}
	_ = tw.Flush()

	sum := store.Summarize(snap.Sensors)
	fmt.Fprintf(out, "\nnormal: %d  caution: %d  low: %d  high: %d\n",
		sum.Counts[store.StatusNormal], sum.Counts[store.StatusCaution],
		sum.Counts[store.StatusLow], sum.Counts[store.StatusHigh])

	if len(snap.Alerts) == 0 {
		fmt.Fprintln(out, "No deviations.")
	} else {
		for _, s := range snap.Alerts {
			fmt.Fprintln(out, alertLine(s, colour))
		}
	}

	fmt.Fprintf(out, "\nfetched in %s\n", snap.Latency.Round(time.Millisecond))
}

// alertLine describes an out-of-range sensor against the bound it crossed.
func alertLine(s store.Sensor, colour bool) string {
	status := sensorboard.Status(s.Status())
	bound, direction := s.Minimum, "below minimum"
	if status == sensorboard.StatusHigh {
		bound, direction = s.Maximum, "above maximum"
	}
	return fmt.Sprintf("%s %s (%s): %.2f %s %s %.2f",
		paintStatus(status, colour), s.Name, s.Location, s.CurrentValue, s.Unit, direction, bound)
}

// paintStatus wraps the status label in a 24-bit ANSI colour when enabled.
func paintStatus(status sensorboard.Status, colour bool) string {
	label := strings.ToUpper(status.String())
	if !colour {
		return label
	}
	r, g, b, ok := parseHex(status.Colour())
	if !ok {
		return label
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, label)
}

// parseHex splits "#rrggbb" into its components.
func parseHex(hex string) (r, g, b uint8, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
