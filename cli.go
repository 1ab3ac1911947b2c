package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"satura-server/modules/common/config"
	"satura-server/modules/youtube"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "satura-server",
	Short: "Satura API server",
	Long: `satura-server serves the Satura API: image generation and video
background removal through fal.ai, project downloads from Supabase Storage,
and YouTube channel connections.

Examples:
  satura-server serve
  satura-server youtube-auth-url --state abc --redirect-uri https://x/cb`,
	Version:      version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var youtubeAuthURLCmd = &cobra.Command{
	Use:   "youtube-auth-url",
	Short: "Print a Google consent URL for the YouTube scopes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		state, _ := cmd.Flags().GetString("state")
		if state == "" {
			state = uuid.NewString()
		}
		redirectURI, _ := cmd.Flags().GetString("redirect-uri")

		authURL, err := youtube.NewOAuth(cfg).GetYoutubeOAuthURL(youtube.AuthURLParams{
			State:       state,
			RedirectURI: redirectURI,
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), authURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(youtubeAuthURLCmd)

	youtubeAuthURLCmd.Flags().String("state", "", "Opaque state token (random when empty)")
	youtubeAuthURLCmd.Flags().String("redirect-uri", "", "OAuth redirect URI (defaults to SITE_URL/api/youtube/callback)")
}
