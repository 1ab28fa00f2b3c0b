// Command prepare-products cleans the raw products CSV into its prepared CSV.
package main

import (
	"context"

	"github.com/JonMunkholm/salesdw/internal/application"
	"github.com/JonMunkholm/salesdw/internal/config"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
)

func main() {
	application.Main("prepare products", func(ctx context.Context, cfg *config.Config) error {
		_, err := application.Prepare(ctx, cfg, tables.Products)
		return err
	})
}
