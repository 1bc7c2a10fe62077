package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/portal-admin/internal/core/events"
)

var _ = Describe("EventBus", func() {
	var (
		ctx context.Context
		bus *events.EventBus
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
	})

	It("delivers published events to every subscriber", func() {
		var calls atomic.Int32
		handler := func(ctx context.Context, e events.Event) error {
			calls.Add(1)
			return nil
		}
		bus.Subscribe(events.EventTypeUserDeactivated, handler)
		bus.Subscribe(events.EventTypeUserDeactivated, handler)
		Expect(bus.HandlerCount(events.EventTypeUserDeactivated)).To(Equal(2))

		Expect(bus.Publish(ctx, events.NewUserDeactivatedEvent(2, 1))).To(Succeed())
		Expect(bus.Drain(ctx)).To(Succeed())
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("keeps handlers running after the request context ends", func() {
		reqCtx, cancel := context.WithCancel(ctx)
		var handlerErr atomic.Value
		bus.Subscribe(events.EventTypeCategoryChanged, func(ctx context.Context, e events.Event) error {
			time.Sleep(10 * time.Millisecond)
			handlerErr.Store(ctx.Err() == nil)
			return nil
		})

		Expect(bus.Publish(reqCtx, events.NewCategoryChangedEvent("presupuesto", events.CategoryCreated, 1))).To(Succeed())
		cancel()
		Expect(bus.Drain(ctx)).To(Succeed())
		Expect(handlerErr.Load()).To(Equal(true))
	})

	It("refuses events once draining", func() {
		Expect(bus.Drain(ctx)).To(Succeed())
		err := bus.Publish(ctx, events.NewUserDeactivatedEvent(2, 1))
		Expect(errors.Is(err, events.ErrBusClosed)).To(BeTrue())
	})

	It("gives up draining when the context expires", func() {
		release := make(chan struct{})
		bus.Subscribe(events.EventTypeUserDeactivated, func(ctx context.Context, e events.Event) error {
			<-release
			return nil
		})
		Expect(bus.Publish(ctx, events.NewUserDeactivatedEvent(2, 1))).To(Succeed())

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		Expect(bus.Drain(short)).To(MatchError(context.DeadlineExceeded))
		close(release)
	})

	It("reports every synchronous failure", func() {
		bus.Subscribe(events.EventTypePermissionsReplaced, func(ctx context.Context, e events.Event) error {
			return errors.New("first")
		})
		bus.Subscribe(events.EventTypePermissionsReplaced, func(ctx context.Context, e events.Event) error {
			panic("second")
		})

		err := bus.PublishSync(ctx, events.NewPermissionsReplacedEvent(2, 1, []string{"noticias"}))
		Expect(err).To(MatchError(ContainSubstring("first")))
		Expect(err).To(MatchError(ContainSubstring("second")))
	})

	It("is a no-op without subscribers", func() {
		Expect(bus.PublishSync(ctx, events.NewUserDeactivatedEvent(2, 1))).To(Succeed())
		Expect(bus.Publish(ctx, events.NewUserDeactivatedEvent(2, 1))).To(Succeed())
	})
})

var _ = Describe("RegisterAuditLog", func() {
	It("writes admin events to the audit log", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewTextHandler(&buf, nil))
		bus := events.NewEventBus(lg)
		events.RegisterAuditLog(bus, lg)

		Expect(bus.PublishSync(context.Background(), events.NewPermissionsReplacedEvent(5, 1, []string{"transparencia_presupuesto"}))).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("component=audit"))
		Expect(buf.String()).To(ContainSubstring(events.EventTypePermissionsReplaced))
		Expect(buf.String()).To(ContainSubstring("transparencia_presupuesto"))
	})
})
