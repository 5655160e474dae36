package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/benvon/memtodo/cmd/server/commands.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)

// VersionInfo is reported by the version command and GET /version
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func currentVersion() VersionInfo {
	return VersionInfo{Version: Version, Commit: Commit}
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := currentVersion()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "todo-server %s (%s)\n", info.Version, info.Commit)
			return err
		},
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(currentVersion())
}
