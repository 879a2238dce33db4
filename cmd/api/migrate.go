package main

import (
	"fmt"
	"lounge-portal/internal/client"
	"lounge-portal/internal/repository"
	"lounge-portal/internal/service"

	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "migrate the schema, merge duplicate active carts and seed reference data",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-seed",
				Usage: "do not insert the menu and chat rooms",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := client.AutoMigrate(a.db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}

			cartService, err := a.cartService()
			if err != nil {
				return err
			}
			merged, err := cartService.MergeDuplicateActiveCarts(ctx)
			if err != nil {
				return err
			}

			if err := client.EnsureActiveCartIndex(a.db); err != nil {
				return fmt.Errorf("create active cart index: %w", err)
			}

			if !c.Bool("skip-seed") {
				if err := repository.NewMenuRepository(a.db).Seed(ctx); err != nil {
					return fmt.Errorf("seed menu: %w", err)
				}
				if err := repository.NewChatRepository(a.db).SeedRooms(ctx, service.DefaultChatRooms); err != nil {
					return fmt.Errorf("seed chat rooms: %w", err)
				}
			}

			a.log.WithField("merged_carts", merged).Info("migration finished")
			return nil
		},
	}
}
