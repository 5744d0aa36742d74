package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"path/filepath"

	"github.com/resend/resend-go/v3"

	"lifesavers-united/internal/config"
	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/pkg/phone"
)

// Service sends coordinator alerts and donor confirmations. All sends are
// best effort: callers fire them from goroutines and failures are logged,
// never propagated into request handling.
type Service interface {
	NotifyRequestCreated(ctx context.Context, request *domain.Request)
	NotifyRequestReopened(ctx context.Context, request *domain.Request)
	SendDonorConfirmation(ctx context.Context, donor *domain.Donor)
}

type service struct {
	client       *resend.Client
	config       *config.Config
	templatePath string
}

func NewService(cfg *config.Config) Service {
	return &service{
		client:       resend.NewClient(cfg.ResendAPIKey),
		config:       cfg,
		templatePath: "internal/service/templates/email",
	}
}

func (s *service) sendEmail(toEmail, subject, templateName string, data interface{}) error {
	tmpl, err := template.ParseFiles(
		filepath.Join(s.templatePath, "layout.html"),
		filepath.Join(s.templatePath, templateName),
	)
	if err != nil {
		return fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Lifesavers United <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: subject,
	}

	_, err = s.client.Emails.Send(params)
	return err
}

type requestEmailData struct {
	Title         string
	PatientName   string
	BloodGroup    string
	UnitsRequired string
	Hospital      string
	City          string
	Urgency       string
	ContactNumber string
	Link          string
}

func (s *service) requestData(title string, request *domain.Request) requestEmailData {
	return requestEmailData{
		Title:         title,
		PatientName:   request.PatientName,
		BloodGroup:    request.RequiredBloodGroup,
		UnitsRequired: request.UnitsRequired,
		Hospital:      request.HospitalName,
		City:          request.HospitalCity,
		Urgency:       request.UrgencyLevel,
		ContactNumber: phone.FormatForDisplay(request.ContactNumber),
		Link:          fmt.Sprintf("https://%s/requests/%s", s.config.Domain, request.ID),
	}
}

func (s *service) NotifyRequestCreated(ctx context.Context, request *domain.Request) {
	if s.config.CoordinatorEmail == "" {
		return
	}
	subject := fmt.Sprintf("New blood request: %s needs %s", request.PatientName, request.RequiredBloodGroup)
	data := s.requestData("New Blood Request", request)
	if err := s.sendEmail(s.config.CoordinatorEmail, subject, "request_created.html", data); err != nil {
		log.Printf("email: failed to send request-created alert for %s: %v", request.ID, err)
	}
}

func (s *service) NotifyRequestReopened(ctx context.Context, request *domain.Request) {
	if s.config.CoordinatorEmail == "" {
		return
	}
	subject := fmt.Sprintf("Blood request reopened: %s needs %s again", request.PatientName, request.RequiredBloodGroup)
	data := s.requestData("Blood Request Reopened", request)
	if err := s.sendEmail(s.config.CoordinatorEmail, subject, "request_reopened.html", data); err != nil {
		log.Printf("email: failed to send request-reopened alert for %s: %v", request.ID, err)
	}
}

func (s *service) SendDonorConfirmation(ctx context.Context, donor *domain.Donor) {
	data := struct {
		Title      string
		Name       string
		DonorID    string
		BloodGroup string
		Link       string
	}{
		Title:      "Welcome to Lifesavers United",
		Name:       donor.FullName,
		DonorID:    donor.ID,
		BloodGroup: donor.BloodGroup,
		Link:       fmt.Sprintf("https://%s", s.config.Domain),
	}
	if err := s.sendEmail(donor.Email, "Thank you for registering as a blood donor", "donor_confirmation.html", data); err != nil {
		log.Printf("email: failed to send donor confirmation to %s: %v", donor.ID, err)
	}
}
