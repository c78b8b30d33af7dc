package main

import (
	"fmt"
	"os"

	"github.com/cimillas/charity-raffle/internal/app"
	"github.com/cimillas/charity-raffle/internal/clock"
	"github.com/cimillas/charity-raffle/internal/storage/postgres"
	"github.com/cimillas/charity-raffle/migrations"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.pool.Close()

			applied, err := migrations.Apply(cmd.Context(), e.pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}

func drawCmd() *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "draw <raffle-id>",
		Short: "Draw a ticket-weighted winner for a raffle",
		Long: `Draw picks one completed entry with probability proportional to its tickets.
Without --commit the result is only printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.pool.Close()

			repo := postgres.NewRaffleRepository(e.pool)
			svc := app.NewDrawService(repo, clock.NewSystem(), app.WithDrawLogger(e.logger))

			res, err := svc.DrawWinner(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "raffle:  %s (%s)\n", res.Raffle.Title, res.Raffle.ID)
			fmt.Fprintf(out, "ticket:  %d of %d\n", res.Ticket+1, res.Total)
			fmt.Fprintf(out, "winner:  %s <%s> entry %s, %d tickets\n",
				res.Winner.Participant.Name, res.Winner.Participant.Email, res.Winner.ID, res.Winner.TicketCount)

			if !commit {
				fmt.Fprintln(out, "not saved; rerun with --commit to record a winner")
				return nil
			}
			if _, err := svc.SetWinner(cmd.Context(), res.Raffle.ID, res.Winner.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, "winner recorded")
			return nil
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "Record the drawn entry as the raffle winner")
	return cmd
}

func exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <raffle-id>",
		Short: "Write a raffle's completed entries as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.pool.Close()

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			svc := app.NewAdminService(postgres.NewRaffleRepository(e.pool), clock.NewSystem())
			return svc.ExportEntries(cmd.Context(), args[0], w)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}
