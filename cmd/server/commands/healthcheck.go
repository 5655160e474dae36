package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/benvon/memtodo/internal/handlers"
	"github.com/spf13/cobra"
)

// NewHealthcheckCmd creates the healthcheck command. It probes a running
// server and exits non-zero when it is unhealthy, for container health checks.
func NewHealthcheckCmd() *cobra.Command {
	var (
		baseURL  string
		extended bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the health of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimRight(baseURL, "/") + "/healthz"
			if extended {
				url += "?mode=extended"
			}

			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("failed to reach %s: %w", url, err)
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			var health handlers.HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("failed to decode health response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", health.Status)
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %s: %s\n", name, health.Checks[name])
			}
			if health.Stats != nil {
				fmt.Fprintf(out, "  todos=%d flagged=%d metadata=%d histories=%d\n",
					health.Stats.Todos, health.Stats.Flagged, health.Stats.Metadata, health.Stats.Histories)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:4000", "Base URL of the server")
	cmd.Flags().BoolVar(&extended, "extended", false, "Include dependency checks")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}
