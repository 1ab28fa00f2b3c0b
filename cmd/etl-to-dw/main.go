// Command etl-to-dw creates the warehouse schema if needed and replaces the
// warehouse contents with the prepared CSVs.
package main

import (
	"context"

	"github.com/JonMunkholm/salesdw/internal/application"
	"github.com/JonMunkholm/salesdw/internal/config"
)

func main() {
	application.Main("warehouse load", func(ctx context.Context, cfg *config.Config) error {
		_, err := application.Load(ctx, cfg)
		return err
	})
}
