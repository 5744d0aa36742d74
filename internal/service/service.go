package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"lifesavers-united/internal/config"
	"lifesavers-united/internal/repository"
	"lifesavers-united/internal/service/archive"
	"lifesavers-united/internal/service/auth"
	"lifesavers-united/internal/service/donation"
	"lifesavers-united/internal/service/donor"
	"lifesavers-united/internal/service/email"
	"lifesavers-united/internal/service/reconcile"
	"lifesavers-united/internal/service/request"
	"lifesavers-united/internal/service/stats"
)

type Services struct {
	Auth      auth.Service
	Reconcile reconcile.Service
	Request   request.Service
	Donation  donation.Service
	Donor     donor.Service
	Email     email.Service
	Archive   archive.Service
	Stats     stats.Service
}

func NewServices(repos *repository.Repositories, redis *redis.Client, minioClient *minio.Client, cfg *config.Config) *Services {
	emailService := email.NewService(cfg)
	archiveService := archive.NewService(minioClient, cfg.MinIOBucket)
	authService := auth.NewService(repos.User, repos.Session, cfg)

	reconcileService := reconcile.NewService(repos.Request, repos.History, redis)
	reconcileService.SetNotifier(emailService)
	reconcileService.SetArchiver(archiveService)

	requestService := request.NewService(repos.Request, repos.History)
	requestService.SetArchiver(archiveService)

	donationService := donation.NewService(repos.Request, repos.DonationLog, repos.Donor, repos.History)
	donationService.SetArchiver(archiveService)

	donorService := donor.NewService(repos.Donor)
	donorService.SetMailer(emailService)

	statsService := stats.NewService(repos.Request, repos.DonationLog, redis)

	return &Services{
		Auth:      authService,
		Reconcile: reconcileService,
		Request:   requestService,
		Donation:  donationService,
		Donor:     donorService,
		Email:     emailService,
		Archive:   archiveService,
		Stats:     statsService,
	}
}
