package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/models"
)

// SMSNotification is the payload sent to the SMS dispatch endpoint
type SMSNotification struct {
	CarrierID string `json:"carrier_id"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// ContactRequest is a sales contact form submission
type ContactRequest struct {
	CompanyName string `json:"companyName" binding:"required"`
	ContactName string `json:"contactName" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

// Notifier dispatches outbound messages
type Notifier interface {
	SendSMS(ctx context.Context, n SMSNotification) error
	SendContactRequest(ctx context.Context, req ContactRequest) error
}

// HTTPNotifier posts notifications to the dispatch functions
type HTTPNotifier struct {
	smsURL     string
	contactURL string
	apiKey     string
	httpClient *http.Client
}

var notifierInstance Notifier

// NewHTTPNotifier creates a notifier from the application configuration
func NewHTTPNotifier(cfg *config.Config) *HTTPNotifier {
	return &HTTPNotifier{
		smsURL:     cfg.NotificationURL,
		contactURL: cfg.ContactURL,
		apiKey:     cfg.NotificationAPIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetNotifier returns the configured notifier
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// StatusMessage returns the carrier-facing text for a status change
func StatusMessage(status models.OperationStatus, licensePlate string) string {
	switch status {
	case models.StatusSiteAccess:
		return fmt.Sprintf("Votre camion %s a accédé au site.", licensePlate)
	case models.StatusParkingWait:
		return fmt.Sprintf("Votre camion %s est en attente au parking.", licensePlate)
	case models.StatusUnloadingDock:
		return fmt.Sprintf("Votre camion %s est appelé au quai de déchargement.", licensePlate)
	case models.StatusLoadingDock:
		return fmt.Sprintf("Votre camion %s est appelé au quai de chargement.", licensePlate)
	case models.StatusOperationsDone:
		return fmt.Sprintf("Les opérations pour votre camion %s sont terminées.", licensePlate)
	default:
		return fmt.Sprintf("Mise à jour de statut pour %s", licensePlate)
	}
}

// SendSMS posts an SMS notification
func (n *HTTPNotifier) SendSMS(ctx context.Context, sms SMSNotification) error {
	if n.smsURL == "" {
		log.Printf("NOTIFICATION_URL not set, skipping SMS to carrier %s", sms.CarrierID)
		return nil
	}
	return n.post(ctx, n.smsURL, sms)
}

// SendContactRequest posts a contact form submission
func (n *HTTPNotifier) SendContactRequest(ctx context.Context, req ContactRequest) error {
	if n.contactURL == "" {
		log.Printf("CONTACT_URL not set, skipping contact request from %s", req.CompanyName)
		return nil
	}
	return n.post(ctx, n.contactURL, req)
}

func (n *HTTPNotifier) post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call notification endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notification endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
