package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/signbridge/internal/core/config"
	"github.com/vietddude/signbridge/internal/infra/agent"
)

var statusSecure bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the local signing agent once and print the result",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusSecure, "secure", false, "probe the TLS listener instead of the plain one")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	secure := statusSecure
	if cfg, err := config.Load(cfgPath); err == nil {
		secure = secure || cfg.Agent.Secure
	}

	prober := agent.NewProber(agent.ProbeConfig{Secure: secure})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := prober.Detect(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ENDPOINT\tRUNNING\tPORT\tTRANSPORT")

	port := "-"
	if status.Port != 0 {
		port = fmt.Sprintf("%d", status.Port)
	}
	transport := "supported"
	if !status.TransportSupported {
		transport = "unsupported"
	}

	_, _ = fmt.Fprintf(w, "%s\t%t\t%s\t%s\n",
		prober.Endpoint().URL(), status.IsRunning, port, transport)
	_ = w.Flush()

	if !status.IsRunning {
		slog.Warn("Signing agent is not reachable")
		os.Exit(1)
	}
}
