package handler

import "lifesavers-united/internal/service"

type Handlers struct {
	Auth     *AuthHandler
	Request  *RequestHandler
	Donation *DonationHandler
	Donor    *DonorHandler
	Public   *PublicHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(services.Auth),
		Request:  NewRequestHandler(services.Reconcile, services.Request),
		Donation: NewDonationHandler(services.Donation),
		Donor:    NewDonorHandler(services.Donor),
		Public:   NewPublicHandler(services.Reconcile, services.Request, services.Stats),
	}
}
