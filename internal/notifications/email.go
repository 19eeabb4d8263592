package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/models"
)

// EmailClient sends notification emails over SMTP
type EmailClient struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
}

// NewEmailClient creates a new email client
func NewEmailClient(cfg config.SMTPConfig) *EmailClient {
	return &EmailClient{
		smtpHost:     cfg.Host,
		smtpPort:     cfg.Port,
		smtpUsername: cfg.Username,
		smtpPassword: cfg.Password,
		fromEmail:    cfg.FromEmail,
		fromName:     cfg.FromName,
	}
}

type emailData struct {
	RecipientName string
	Title         string
	Message       string
	Data          map[string]interface{}
}

const notificationEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1565C0; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; margin: 15px 0; border-radius: 5px; }
        .detail-row { display: flex; justify-content: space-between; padding: 5px 0; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
        </div>
        <div class="content">
            <p>Hi {{.RecipientName}},</p>
            <p>{{.Message}}</p>
            {{if .Data}}
            <div class="details">
                {{range $key, $value := .Data}}
                <div class="detail-row">
                    <strong>{{$key}}:</strong>
                    <span>{{$value}}</span>
                </div>
                {{end}}
            </div>
            {{end}}
        </div>
        <div class="footer">
            <p>&copy; 2026 Rideline. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`

const receiptEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2E7D32; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .receipt { background-color: white; padding: 15px; margin: 15px 0; border-radius: 5px; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Your Ride Receipt</h1>
        </div>
        <div class="content">
            <p>Hi {{.RecipientName}},</p>
            <p>{{.Message}}</p>
            <div class="receipt">
                {{range $key, $value := .Data}}
                <div style="display: flex; justify-content: space-between; padding: 5px 0;">
                    <span>{{$key}}</span>
                    <span>{{$value}}</span>
                </div>
                {{end}}
            </div>
        </div>
        <div class="footer">
            <p>&copy; 2026 Rideline. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`

const rideRequestEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #E65100; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .route { background-color: white; padding: 15px; margin: 15px 0; border-radius: 5px; }
        .fare { font-size: 24px; font-weight: bold; color: #2E7D32; text-align: center; padding: 10px; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Ride Request</h1>
        </div>
        <div class="content">
            <p>Hi {{.RecipientName}},</p>
            <p>{{.Message}}</p>
            <div class="route">
                <p><strong>Pickup:</strong> {{.Data.PickupAddr}} ({{.Data.Distance}} from you)</p>
                <p><strong>Dropoff:</strong> {{.Data.DropoffAddr}}</p>
                <p><strong>Trip length:</strong> {{.Data.TripLength}}</p>
            </div>
            <div class="fare">{{.Data.Fare}}</div>
        </div>
        <div class="footer">
            <p>&copy; 2026 Rideline. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`

const rideAcceptedEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1565C0; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .driver { background-color: white; padding: 15px; margin: 15px 0; border-radius: 5px; }
        .eta { font-size: 20px; font-weight: bold; text-align: center; padding: 10px; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Driver On The Way</h1>
        </div>
        <div class="content">
            <p>Hi {{.RecipientName}},</p>
            <p>{{.Message}}</p>
            <div class="driver">
                <p><strong>Driver:</strong> {{.Data.DriverName}} (rated {{.Data.DriverRating}})</p>
                <p><strong>Phone:</strong> {{.Data.DriverPhone}}</p>
                <p><strong>Vehicle:</strong> {{.Data.VehicleColor}} {{.Data.VehicleMake}} {{.Data.VehicleModel}}, plate {{.Data.VehiclePlate}}</p>
            </div>
            <div class="eta">Arriving in about {{.Data.ETA}}</div>
        </div>
        <div class="footer">
            <p>&copy; 2026 Rideline. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`

var (
	notificationTmpl = template.Must(template.New("notification").Parse(notificationEmailTemplate))
	receiptTmpl      = template.Must(template.New("receipt").Parse(receiptEmailTemplate))
	rideRequestTmpl  = template.Must(template.New("ride_request").Parse(rideRequestEmailTemplate))
	rideAcceptedTmpl = template.Must(template.New("ride_accepted").Parse(rideAcceptedEmailTemplate))
)

// SendNotificationEmail renders and sends the email for a notification. Ride
// requests, acceptances and completions get their own layouts, everything
// else the generic one.
func (e *EmailClient) SendNotificationEmail(to, name string, notificationType models.NotificationType, title, message string, data map[string]interface{}) error {
	var tmpl *template.Template
	switch notificationType {
	case models.NotificationTypeRideRequest:
		tmpl = rideRequestTmpl
	case models.NotificationTypeRideAccepted:
		tmpl = rideAcceptedTmpl
	case models.NotificationTypeRideCompleted:
		tmpl = receiptTmpl
	default:
		tmpl = notificationTmpl
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, emailData{
		RecipientName: name,
		Title:         title,
		Message:       message,
		Data:          data,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return e.sendHTML(to, title, body.String())
}

func (e *EmailClient) sendHTML(to, subject, htmlBody string) error {
	from := fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", from, to, subject, htmlBody))

	auth := smtp.PlainAuth("", e.smtpUsername, e.smtpPassword, e.smtpHost)
	addr := fmt.Sprintf("%s:%s", e.smtpHost, e.smtpPort)

	if err := smtp.SendMail(addr, auth, e.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
