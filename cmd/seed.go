/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tnp-portal/apiserver/config"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/db"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/internal/store"
	"github.com/tnp-portal/apiserver/types"
)

var seedFile string

// seedCmd loads the college directory from a JSON file. Colleges that
// already exist are skipped.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the college directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		raw, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read seed file failed: %w", err)
		}
		var colleges []types.College
		if err := json.Unmarshal(raw, &colleges); err != nil {
			return fmt.Errorf("parse seed file failed: %w", err)
		}

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		collegeService := services.NewCollegeService(store.NewCollegeRepository(dbConn))
		created := 0
		for _, college := range colleges {
			if _, err := collegeService.Seed(cmd.Context(), college); err != nil {
				if apperr.From(err).Code == apperr.CodeConflict {
					continue
				}
				return fmt.Errorf("seed college %q failed: %w", college.Name, err)
			}
			created++
		}
		fmt.Printf("seeded %d colleges (%d already present)\n", created, len(colleges)-created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "colleges.json", "path to the colleges JSON file")
}
