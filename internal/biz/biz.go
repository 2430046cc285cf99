package biz

import (
	"github.com/axionhq/axion-router/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Presence   *usecase.PresenceUsecase
	Assignment *usecase.AssignmentUsecase
	Resolver   *usecase.TicketResolverUsecase
	Handoff    *usecase.HandoffUsecase
	Reply      *usecase.ReplyUsecase
}
