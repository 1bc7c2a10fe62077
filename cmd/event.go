package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/portal-admin/internal/core/events"
	"github.com/frahmantamala/portal-admin/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the admin event bus: publish sample events through the audit log subscriber.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample admin event",
	Long:      `Publish a sample event to the audit log subscriber for testing and debugging`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypePermissionsReplaced, events.EventTypeCategoryChanged, events.EventTypeUserDeactivated},
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishSampleEvent(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var (
	eventUserID int64
	eventSlug   string
)

func publishSampleEvent(eventType string) error {
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	var event events.Event
	switch eventType {
	case events.EventTypePermissionsReplaced:
		event = events.NewPermissionsReplacedEvent(eventUserID, 0, []string{"noticias"})
	case events.EventTypeCategoryChanged:
		event = events.NewCategoryChangedEvent(eventSlug, events.CategoryUpdated, 0)
	case events.EventTypeUserDeactivated:
		event = events.NewUserDeactivatedEvent(eventUserID, 0)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	return bus.PublishSync(context.Background(), event)
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventUserID, "user", 1, "user id carried by the event")
	publishEventCmd.Flags().StringVar(&eventSlug, "slug", "presupuesto", "category slug carried by the event")

	eventCmd.AddCommand(publishEventCmd)
}
