// Package timezone keeps every timestamp the service writes or renders in one
// configured location.
//
// Call Init once at boot with the loaded configuration. Until then every helper
// falls back to UTC, which is also what tests observe.
//
//	timezone.Init(cfg.App.Timezone)
//	now := timezone.Now()
//	rendered := timezone.Format(order.CreatedAt, time.RFC3339)
//
// Names must come from the IANA database ("Asia/Dhaka", "UTC").
package timezone
