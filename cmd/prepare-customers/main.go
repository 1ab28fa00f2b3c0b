// Command prepare-customers cleans the raw customers CSV into its prepared CSV.
package main

import (
	"context"

	"github.com/JonMunkholm/salesdw/internal/application"
	"github.com/JonMunkholm/salesdw/internal/config"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
)

func main() {
	application.Main("prepare customers", func(ctx context.Context, cfg *config.Config) error {
		_, err := application.Prepare(ctx, cfg, tables.Customers)
		return err
	})
}
