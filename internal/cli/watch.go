package cli

import (
	"context"
)

// WatchCatalog reloads the factory catalog into the app registry whenever its files change,
// until ctx is done. Editors pick reloaded factories up on their next lookup; modules already
// built keep the factory they were built from.
func WatchCatalog(ctx context.Context, app *App) error {
	if app.Catalog == nil {
		return nil
	}
	events, err := app.Catalog.Watch(ctx)
	if err != nil {
		return err
	}
	app.Logger.Info("Starting catalog watcher", "paths", app.Config.Factories)

	go func() {
		for range events {
			n, err := app.Registry.Load(ctx, app.Catalog)
			if err != nil {
				app.Logger.Error("Catalog reload failed", "err", err)
				continue
			}
			app.Logger.Info("Catalog reloaded", "factories", n)
		}
	}()
	return nil
}
