/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kafekita/apiserver/config"
	"github.com/kafekita/apiserver/internal/services"
	"github.com/kafekita/apiserver/internal/store"
	"github.com/kafekita/apiserver/types"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the collection files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		cafes := store.NewCafeRepository(filepath.Join(cfg.DataDir, store.CafesFile))
		users := store.NewCredentialRepository(filepath.Join(cfg.DataDir, store.UsersFile), types.RoleUser)
		admins := store.NewCredentialRepository(filepath.Join(cfg.DataDir, store.AdminsFile), types.RoleAdmin)
		reviews := store.NewReviewRepository(filepath.Join(cfg.DataDir, store.ReviewsFile))

		// Listing a missing collection creates it with an empty array.
		if _, err := cafes.List(ctx); err != nil {
			return fmt.Errorf("init cafes: %w", err)
		}
		if _, err := users.List(ctx); err != nil {
			return fmt.Errorf("init users: %w", err)
		}
		if _, err := admins.List(ctx); err != nil {
			return fmt.Errorf("init admins: %w", err)
		}
		if _, err := reviews.List(ctx); err != nil {
			return fmt.Errorf("init reviews: %w", err)
		}

		fmt.Printf("collections ready under %s\n", cfg.DataDir)
		return nil
	},
}

var (
	seedAdminUsername string
	seedAdminPassword string
)

// seedAdminCmd writes an admin credential with a hashed password.
var seedAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an admin credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(seedAdminUsername)
		if username == "" || seedAdminPassword == "" {
			return errors.New("username and password are required")
		}

		hashed, err := services.HashPassword(seedAdminPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		cfg := config.LoadConfig()
		admins := store.NewCredentialRepository(filepath.Join(cfg.DataDir, store.AdminsFile), types.RoleAdmin)
		err = admins.Append(cmd.Context(), types.Credential{
			Username: username,
			Password: hashed,
			Role:     types.RoleAdmin,
		})
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("admin %q already exists", username)
			}
			return fmt.Errorf("store admin: %w", err)
		}

		fmt.Printf("admin %q created\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVarP(&seedAdminUsername, "username", "u", "", "admin username")
	seedAdminCmd.Flags().StringVarP(&seedAdminPassword, "password", "p", "", "admin password")
}
