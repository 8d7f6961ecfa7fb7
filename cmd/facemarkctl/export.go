package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newExportCmd(cfg *clientConfig) *cobra.Command {
	var format, from, to, class, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download an attendance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("format", format)
			if from != "" {
				query.Set("from", from)
			}
			if to != "" {
				query.Set("to", to)
			}
			if class != "" {
				query.Set("class", class)
			}

			req, err := http.NewRequest("GET", cfg.baseURL+"/attendance/export?"+query.Encode(), nil)
			if err != nil {
				return err
			}
			if cfg.token != "" {
				req.Header.Set("Authorization", "Bearer "+cfg.token)
			}
			client := &http.Client{Timeout: 2 * time.Minute}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("export failed (%d): %s", resp.StatusCode, string(body))
			}

			if output == "" {
				output = "attendance." + format
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			defer file.Close()
			if _, err := io.Copy(file, resp.Body); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Report format: csv or pdf")
	cmd.Flags().StringVar(&from, "from", "", "From date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "To date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&class, "class", "", "Filter by class")
	cmd.Flags().StringVar(&output, "output", "", "Output file (default attendance.<format>)")
	return cmd
}
