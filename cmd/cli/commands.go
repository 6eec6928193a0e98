package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	force    bool
	snapshot bool
	dryRun   bool
	token    string
)

func init() {
	duelsCmd.Flags().BoolVar(&force, "force", false, "Sync before reading even if the last pass is fresh")
	duelsCmd.Flags().BoolVar(&snapshot, "snapshot", false, "Read the stored matrix without syncing")
	syncCmd.Flags().BoolVar(&force, "force", false, "Bypass the sync throttle")
	announceCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the message instead of posting it")
	linkCmd.Flags().StringVar(&token, "token", "", "Personal Lichess API token to link by instead of a handle")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(duelsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(announceCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/users", nil)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Register a new user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/users", map[string]string{"username": args[0]})
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <username> [lichess-username]",
	Short: "Link a Lichess account to a user",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{}
		switch {
		case token != "":
			body["token"] = token
		case len(args) == 2:
			body["lichessUsername"] = args[1]
		default:
			return fmt.Errorf("either a lichess username or --token is required")
		}
		return performRequest(http.MethodPost, "/api/users/"+url.PathEscape(args[0])+"/lichess", body)
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <username>",
	Short: "Remove a user's Lichess link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/api/users/"+url.PathEscape(args[0])+"/lichess", nil)
	},
}

var duelsCmd = &cobra.Command{
	Use:   "duels",
	Short: "Get the head-to-head duels matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if force {
			q.Set("force", "1")
		}
		if snapshot {
			q.Set("snapshot", "1")
		}
		endpoint := "/api/duels"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger a duels sync pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/api/duels/sync"
		if force {
			endpoint += "?force=1"
		}
		return performRequest(http.MethodPost, endpoint, nil)
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Post the current standings to Slack",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/api/duels/announce"
		if dryRun {
			endpoint += "?dry_run=true"
		}
		return performRequest(http.MethodPost, endpoint, nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

func performRequest(method, endpoint string, payload any) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
