package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/reminder"
)

// jobEnvelope is the server's response wrapper around a job result.
type jobEnvelope struct {
	Success bool                `json:"success"`
	Data    *domain.BatchResult `json:"data"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
}

// JobClient triggers batch jobs on a running server.
type JobClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewJobClient(baseURL string) *JobClient {
	return &JobClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *JobClient) Run(ctx context.Context, name string) (*domain.BatchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/jobs/"+name, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	var env jobEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("job %s failed (%d %s): %s", name, resp.StatusCode, env.Code, env.Error)
	}
	return env.Data, nil
}

// RecoverRemindersCmd asks the server to re-arm persisted reminders. Timers
// live in the server process, so recovery cannot run from here.
func RecoverRemindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover-reminders",
		Short: "Re-arm pending reminders on a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")

			result, err := NewJobClient(server).Run(cmd.Context(), reminder.JobRecover)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().String("server", "http://localhost:8080", "Base URL of the tenancy server")
	return cmd
}
