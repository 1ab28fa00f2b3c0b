// Command prepare-sales cleans the raw sales CSV into its prepared CSV.
package main

import (
	"context"

	"github.com/JonMunkholm/salesdw/internal/application"
	"github.com/JonMunkholm/salesdw/internal/config"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
)

func main() {
	application.Main("prepare sales", func(ctx context.Context, cfg *config.Config) error {
		_, err := application.Prepare(ctx, cfg, tables.Sales)
		return err
	})
}
