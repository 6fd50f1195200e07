package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirecast-server/internal/store"
	"github.com/vovakirdan/wirecast-server/internal/store/sqlite"
)

var (
	streamOwner int64
	streamTitle string
	streamID    string
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Manage stream records",
}

var streamCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an idle stream owned by a user",
	Long: `Create an idle stream row in the configured database. The owner can then
connect with a token for that user and send start_stream.

Example usage:
  wirecast stream create --owner 1 --title "friday jam"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if streamOwner <= 0 {
			return errors.New("--owner must be a positive user id")
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		id := streamID
		if id == "" {
			id = uuid.NewString()
		}
		s := &store.Stream{ID: id, UserID: streamOwner, Title: streamTitle}
		if err := st.CreateStream(cmd.Context(), s); err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"id":      s.ID,
			"user_id": s.UserID,
			"title":   s.Title,
			"status":  s.Status,
		})
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.AddCommand(streamCreateCmd)

	streamCreateCmd.Flags().Int64Var(&streamOwner, "owner", 0, "owner user id (required)")
	streamCreateCmd.Flags().StringVar(&streamTitle, "title", "", "stream title")
	streamCreateCmd.Flags().StringVar(&streamID, "id", "", "stream id (default: random uuid)")
	_ = streamCreateCmd.MarkFlagRequired("owner")
}
