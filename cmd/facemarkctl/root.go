package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type clientConfig struct {
	baseURL string
	token   string
}

func newRootCmd() *cobra.Command {
	cfg := &clientConfig{}

	root := &cobra.Command{
		Use:           "facemarkctl",
		Short:         "Operator CLI for the Facemark attendance service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.baseURL, "server", "http://localhost:8080/api/v1", "API base URL")
	root.PersistentFlags().StringVar(&cfg.token, "token", "", "Bearer token for authenticated endpoints")

	root.AddCommand(newTrainCmd(cfg))
	root.AddCommand(newCleanupCmd(cfg))
	root.AddCommand(newExportCmd(cfg))
	return root
}

// envelope mirrors the API response contract.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *clientConfig) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, string(data))
	}
	if env.Error != nil {
		return env.Error
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
