package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type trainingStatus struct {
	Running  bool   `json:"running"`
	Progress int    `json:"progress"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
	Students int    `json:"students"`
	Samples  int    `json:"samples"`
}

func newTrainCmd(cfg *clientConfig) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Start a training run and optionally wait for it to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status trainingStatus
			if err := cfg.do("POST", "/training/runs", nil, &status); err != nil {
				return err
			}
			fmt.Println("training started")
			if !wait {
				return nil
			}

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("training"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			for {
				time.Sleep(time.Second)
				if err := cfg.do("GET", "/training/status", nil, &status); err != nil {
					return err
				}
				_ = bar.Set(status.Progress)
				if !status.Running {
					break
				}
			}
			_ = bar.Finish()

			if status.Stage == "failed" {
				return fmt.Errorf("training failed: %s", status.Error)
			}
			fmt.Printf("trained on %d samples from %d students\n", status.Samples, status.Students)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", true, "Poll progress until the run completes")
	return cmd
}
