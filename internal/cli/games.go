package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/partyhub/internal/api/request"
	"github.com/mcoot/partyhub/internal/api/response"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List registered games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameList

			if err := client.Get("/api/v1/games", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.AddCommand(newGamesShowCmd())
	cmd.AddCommand(newGamesValidateTokenCmd())

	return cmd
}

func newGamesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show one game definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game

			if err := client.Get("/api/v1/games/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newGamesValidateTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-token <join-token>",
		Short: "Check a game join token the way a game server would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.JoinTokenValidation

			req := request.ValidateJoinTokenRequest{Token: args[0]}
			if err := client.Post("/api/v1/games/join-token/validate", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
