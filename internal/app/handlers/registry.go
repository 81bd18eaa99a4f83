// Package handlers registers every command and query handler on the buses and
// wraps them in the middleware chain.
package handlers

import (
	"log/slog"
	"time"

	appaudit "resortbook/internal/app/audit"
	"resortbook/internal/app/commands"
	"resortbook/internal/app/dto"
	auditapp "resortbook/internal/app/handlers/audit"
	availabilityapp "resortbook/internal/app/handlers/availability"
	bookingapp "resortbook/internal/app/handlers/booking"
	meapp "resortbook/internal/app/handlers/me"
	roomsapp "resortbook/internal/app/handlers/rooms"
	"resortbook/internal/app/middleware"
	"resortbook/internal/app/outbox"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	"resortbook/internal/domain/booking"
)

type Deps struct {
	UoWFactory      uow.UoWFactory
	Reservation     *reservation.Service
	Outbox          outbox.Outbox
	Encoder         outbox.EventEncoder
	Idempotency     middleware.IdempotencyStore
	IdempotencyTTL  time.Duration
	Audit           appaudit.Store
	PastCheckIn     booking.PastCheckInPolicy
	DefaultCurrency string
	Logger          *slog.Logger
	Now             func() time.Time
	NewID           func() string
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build registers all handlers and returns the buses wrapped as
// logging > authorization > validation > idempotency > transaction > outbox flush.
func Build(d Deps) Buses {
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{IDGenerator: d.NewID}
	}
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	requestHandler := &bookingapp.RequestBookingHandler{
		UoWFactory:  d.UoWFactory,
		Service:     d.Reservation,
		Outbox:      d.Outbox,
		Encoder:     d.Encoder,
		PastCheckIn: d.PastCheckIn,
		Logger:      d.Logger,
		Now:         d.Now,
	}
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), requestHandler)

	transitions := &bookingapp.TransitionHandler{
		UoWFactory: d.UoWFactory,
		Service:    d.Reservation,
		Outbox:     d.Outbox,
		Encoder:    d.Encoder,
		Logger:     d.Logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), commands.HandlerFunc[bookingapp.ConfirmBookingCommand, dto.BookingResult](transitions.Confirm))
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), commands.HandlerFunc[bookingapp.CancelBookingCommand, dto.BookingResult](transitions.Cancel))

	roomCommands := &roomsapp.CommandHandler{
		UoWFactory:      d.UoWFactory,
		Outbox:          d.Outbox,
		Encoder:         d.Encoder,
		DefaultCurrency: d.DefaultCurrency,
		Logger:          d.Logger,
		Now:             d.Now,
		NewID:           d.NewID,
	}
	commands.RegisterHandler(commandBus, roomsapp.CreateRoomCommand{}.Key(), commands.HandlerFunc[roomsapp.CreateRoomCommand, dto.Room](roomCommands.Create))
	commands.RegisterHandler(commandBus, roomsapp.UpdateRoomCommand{}.Key(), commands.HandlerFunc[roomsapp.UpdateRoomCommand, dto.Room](roomCommands.Update))
	commands.RegisterHandler(commandBus, roomsapp.SetRoomActiveCommand{}.Key(), commands.HandlerFunc[roomsapp.SetRoomActiveCommand, dto.Room](roomCommands.SetActive))
	commands.RegisterHandler(commandBus, roomsapp.DeleteRoomCommand{}.Key(), commands.HandlerFunc[roomsapp.DeleteRoomCommand, struct{}](roomCommands.Delete))

	roomQueries := &roomsapp.QueryHandler{UoWFactory: d.UoWFactory, Service: d.Reservation}
	queries.RegisterHandler(queryBus, roomsapp.SearchRoomsQuery{}.Key(), queries.HandlerFunc[roomsapp.SearchRoomsQuery, dto.RoomCatalog](roomQueries.Search))
	queries.RegisterHandler(queryBus, roomsapp.ListRoomsQuery{}.Key(), queries.HandlerFunc[roomsapp.ListRoomsQuery, dto.RoomCatalog](roomQueries.List))
	queries.RegisterHandler(queryBus, roomsapp.GetRoomQuery{}.Key(), queries.HandlerFunc[roomsapp.GetRoomQuery, dto.Room](roomQueries.Get))
	queries.RegisterHandler(queryBus, roomsapp.QuoteQuery{}.Key(), queries.HandlerFunc[roomsapp.QuoteQuery, dto.QuoteDTO](roomQueries.Quote))

	availability := &availabilityapp.CheckHandler{UoWFactory: d.UoWFactory, Service: d.Reservation}
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), queries.HandlerFunc[availabilityapp.CheckAvailabilityQuery, dto.Availability](availability.Check))
	queries.RegisterHandler(queryBus, availabilityapp.ListConflictsQuery{}.Key(), queries.HandlerFunc[availabilityapp.ListConflictsQuery, dto.Conflicts](availability.Conflicts))
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: d.UoWFactory, Now: d.Now})

	bookingQueries := &bookingapp.QueryHandler{UoWFactory: d.UoWFactory}
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), queries.HandlerFunc[bookingapp.GetBookingQuery, dto.Booking](bookingQueries.Get))
	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), queries.HandlerFunc[bookingapp.ListBookingsQuery, dto.BookingCollection](bookingQueries.List))
	queries.RegisterHandler(queryBus, meapp.ListMyBookingsQuery{}.Key(), &meapp.ListMyBookingsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})

	if d.Audit != nil {
		queries.RegisterHandler(queryBus, auditapp.ListAuditQuery{}.Key(), &auditapp.ListAuditHandler{Store: d.Audit})
	}

	validator := middleware.NewStructValidator()
	authorizer := middleware.RoleAuthorizer{}
	commandMW := []middleware.CommandMiddleware{
		middleware.Logging(d.Logger),
		middleware.Authorization(authorizer),
		middleware.Validation(validator),
	}
	if d.Idempotency != nil {
		commandMW = append(commandMW, middleware.Idempotency(d.Idempotency, nil, d.IdempotencyTTL, d.Logger))
	}
	// The flush wraps the transaction so it only sees committed events.
	if d.Outbox != nil {
		commandMW = append(commandMW, middleware.OutboxFlush(d.Outbox, d.Logger))
	}
	commandMW = append(commandMW, middleware.Transaction(d.UoWFactory, nil))

	if d.Logger != nil {
		d.Logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())
	}
	return Buses{
		Commands: middleware.ChainCommands(commandBus, commandMW...),
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryLogging(d.Logger),
			middleware.QueryAuthorization(authorizer),
			middleware.QueryValidation(validator),
		),
	}
}
