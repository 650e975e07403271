/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package device

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratastor/rodent/config"
	"github.com/stratastor/rodent/pkg/httpclient"
)

var (
	serial string
	model  string
	path   string
	family string
)

// NewDeviceCmd mirrors lrs_device_add: registers a new drive with the
// running server's in-memory registry without requiring a restart.
func NewDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage LRS drives",
	}
	cmd.AddCommand(newDeviceAddCmd())
	cmd.AddCommand(newDeviceListCmd())
	return cmd
}

func newDeviceAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new drive with the LRS registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			client := localClient(cfg)

			req := client.NewRequest(httpclient.RequestConfig{
				Path: "/api/v1/lrs/devices",
				Body: map[string]string{
					"serial": serial,
					"model":  model,
					"path":   path,
					"family": family,
				},
			})
			resp, err := req.Post()
			if err != nil {
				return fmt.Errorf("device_add request failed: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("device_add failed: %s", resp.String())
			}
			fmt.Printf("Drive %s registered\n", serial)
			return nil
		},
	}
	cmd.Flags().StringVar(&serial, "serial", "", "drive serial number")
	cmd.Flags().StringVar(&model, "model", "", "drive model")
	cmd.Flags().StringVar(&path, "path", "", "drive device path")
	cmd.Flags().StringVar(&family, "family", "tape", "resource family (tape or dir)")
	cmd.MarkFlagRequired("serial")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("path")
	return cmd
}

func newDeviceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drives known to the LRS registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			client := localClient(cfg)

			req := client.NewRequest(httpclient.RequestConfig{Path: "/api/v1/lrs/devices"})
			resp, err := req.Get()
			if err != nil {
				return fmt.Errorf("device list request failed: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("device list failed: %s", resp.String())
			}
			fmt.Println(resp.String())
			return nil
		},
	}
}

func localClient(cfg *config.Config) *httpclient.Client {
	return httpclient.NewClient(httpclient.ClientConfig{
		BaseURL: fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	})
}
